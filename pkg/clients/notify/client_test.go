package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNotifyTransferPostsEvent(t *testing.T) {
	var got TransferEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewWebhookClient(srv.URL)
	err := c.NotifyTransfer(context.Background(), TransferEvent{InvoiceNumber: "TR-20250315-0001", Net: 113})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got.Type != "transfer.created" || got.InvoiceNumber != "TR-20250315-0001" {
		t.Errorf("event: got %+v", got)
	}
}

func TestNotifyTransferSurfacesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"channel archived"}`))
	}))
	defer srv.Close()

	err := NewWebhookClient(srv.URL).NotifyTransfer(context.Background(), TransferEvent{})
	if err == nil {
		t.Fatal("expected webhook error")
	}
}
