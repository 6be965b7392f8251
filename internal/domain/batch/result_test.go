package batch

import (
	"errors"
	"testing"
)

func TestSummarize(t *testing.T) {
	results := []Result{
		NewOK("member_1"),
		NewOK("member_2"),
		NewSkipped("blank", errors.New("text is required")),
		NewError("claim_9", errors.New("upsert failed")),
	}
	s := Summarize(results)
	if s[StatusOK] != 2 || s[StatusSkipped] != 1 || s[StatusError] != 1 {
		t.Errorf("unexpected summary %v", s)
	}
	if s.Failed() != 2 {
		t.Errorf("Failed() = %d, want 2", s.Failed())
	}
	if results[2].Err() == nil || results[2].ID() != "blank" || results[2].Status() != StatusSkipped {
		t.Errorf("unexpected skipped result %+v", results[2])
	}
}
