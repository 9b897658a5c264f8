package money

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  float64
	}{
		{name: "half up on binary artifact", input: 0.145, want: 0.15},
		{name: "carries into units", input: 19.995, want: 20.00},
		{name: "one cent boundary", input: 1.005, want: 1.01},
		{name: "already rounded", input: 12.34, want: 12.34},
		{name: "rounds down", input: 2.344, want: 2.34},
		{name: "negative half away from zero", input: -0.145, want: -0.15},
		{name: "zero", input: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round2(tt.input); got != tt.want {
				t.Errorf("Round2(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRound2Idempotent(t *testing.T) {
	inputs := []float64{0.145, 19.995, 1.005, 3.14159, -7.125, 1e6 + 0.005, 0.1 + 0.2}
	for _, in := range inputs {
		once := Round2(in)
		if twice := Round2(once); twice != once {
			t.Errorf("Round2(Round2(%v)) = %v, want %v", in, twice, once)
		}
	}
}

func TestSum(t *testing.T) {
	if got := Sum(0.1, 0.2); got != 0.3 {
		t.Errorf("Sum(0.1, 0.2) = %v, want 0.3", got)
	}
	if got := Sum(); got != 0 {
		t.Errorf("Sum() = %v, want 0", got)
	}
}

func TestNet(t *testing.T) {
	tests := []struct {
		gross, hst, want float64
	}{
		{gross: 50, hst: 5.75, want: 44.25},
		{gross: 10, hst: 12, want: 0},
		{gross: 11.3, hst: 1.3, want: 10},
		{gross: 0.3, hst: 0.1, want: 0.2},
	}

	for _, tt := range tests {
		if got := Net(tt.gross, tt.hst); got != tt.want {
			t.Errorf("Net(%v, %v) = %v, want %v", tt.gross, tt.hst, got, tt.want)
		}
	}
}

func TestMul(t *testing.T) {
	if got := Mul(3, 19.99); got != 59.97 {
		t.Errorf("Mul(3, 19.99) = %v, want 59.97", got)
	}
}
