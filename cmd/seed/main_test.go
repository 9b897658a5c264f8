package main

import "testing"

func TestParseStores(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"two stores", "CeSoir:Ce Soir:cesoir@example.com, north:North", 2, false},
		{"missing name", "north", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseStores(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got err %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d stores, want %d", len(got), tt.want)
			}
			if tt.want == 2 && (got[0].ID != "cesoir" || got[0].Email != "cesoir@example.com" || got[1].Email != "") {
				t.Errorf("got %+v", got)
			}
		})
	}
}
