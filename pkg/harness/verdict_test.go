package harness

import "testing"

func TestVerdict(t *testing.T) {
	tests := []struct {
		rate      float64
		threshold float64
		want      bool
	}{
		{0, DefaultThreshold, false},
		{0.69, DefaultThreshold, false},
		{0.70, DefaultThreshold, true},
		{0.71, DefaultThreshold, true},
		{1, DefaultThreshold, true},
		{1, 1, true},
		{0.99, 1, false},
		{0, 0, true},
	}
	for _, tt := range tests {
		if got := Verdict(tt.rate, tt.threshold); got != tt.want {
			t.Errorf("Verdict(%v, %v) = %v, want %v", tt.rate, tt.threshold, got, tt.want)
		}
	}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		if err := ValidateThreshold(v); err != nil {
			t.Errorf("unexpected error for %v: %v", v, err)
		}
	}
	for _, v := range []float64{-0.1, 1.01} {
		if err := ValidateThreshold(v); err == nil {
			t.Errorf("expected error for %v", v)
		}
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(true) != 0 {
		t.Error("passing verdict must exit 0")
	}
	if ExitCode(false) == 0 {
		t.Error("failing verdict must exit nonzero")
	}
}
