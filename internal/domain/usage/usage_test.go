package usage

import "testing"

func TestReport_Remaining(t *testing.T) {
	tests := []struct {
		name          string
		limit, used   int64
		wantRemaining int64
		wantExhausted bool
	}{
		{"unlimited", 0, 5000, -1, false},
		{"under limit", 10000, 3000, 7000, false},
		{"at limit", 10000, 10000, 0, true},
		{"over limit", 10000, 12000, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReport("embedding:openai", PeriodDay, 0, 1, tt.limit, tt.used)
			if r.Remaining() != tt.wantRemaining {
				t.Errorf("Remaining() = %d, want %d", r.Remaining(), tt.wantRemaining)
			}
			if r.Exhausted() != tt.wantExhausted {
				t.Errorf("Exhausted() = %v, want %v", r.Exhausted(), tt.wantExhausted)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	if p, ok := ParsePeriod(""); !ok || p != PeriodDay {
		t.Errorf("empty period: %q, %v", p, ok)
	}
	if p, ok := ParsePeriod("month"); !ok || p != PeriodMonth {
		t.Errorf("month: %q, %v", p, ok)
	}
	if _, ok := ParsePeriod("year"); ok {
		t.Error("year must be rejected")
	}
}
