package usage

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	domusage "github.com/kailas-cloud/carequery/internal/domain/usage"
	"github.com/kailas-cloud/carequery/internal/usecase/budget"
)

func TestGetReports(t *testing.T) {
	emb := budget.NewTracker("embedding:openai", "", budget.Limits{Daily: 10000, Monthly: 100000}, zap.NewNop())
	gen := budget.NewTracker("generation:openai", "", budget.Limits{}, zap.NewNop())
	emb.Record(3000)
	gen.Record(500)

	svc := New(emb, nil, gen)

	daily := svc.GetReports(context.Background(), domusage.PeriodDay)
	if len(daily) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(daily))
	}
	if daily[0].Provider() != "embedding:openai" || daily[1].Provider() != "generation:openai" {
		t.Errorf("unexpected order: %s, %s", daily[0].Provider(), daily[1].Provider())
	}
	if daily[0].Used() != 3000 || daily[0].Remaining() != 7000 {
		t.Errorf("embedding daily used=%d remaining=%d", daily[0].Used(), daily[0].Remaining())
	}
	if daily[1].Remaining() != -1 {
		t.Errorf("unlimited budget remaining = %d, want -1", daily[1].Remaining())
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if daily[0].PeriodStart() != dayStart.UnixMilli() {
		t.Errorf("period start = %d, want %d", daily[0].PeriodStart(), dayStart.UnixMilli())
	}

	monthly := svc.GetReports(context.Background(), domusage.PeriodMonth)
	if monthly[0].Period() != domusage.PeriodMonth || monthly[0].Limit() != 100000 {
		t.Errorf("unexpected monthly report: %s limit=%d", monthly[0].Period(), monthly[0].Limit())
	}
}

func TestGetReports_NoBudgets(t *testing.T) {
	reports := New().GetReports(context.Background(), domusage.PeriodDay)
	if reports == nil || len(reports) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", reports)
	}
}
