package stats

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
)

func recs(statuses ...lifecycle.Status) []record.Record {
	out := make([]record.Record, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, record.Record{Status: s})
	}
	return out
}

func sumShares(s Summary) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range s.Buckets {
		sum = sum.Add(b.Share)
	}
	return sum
}

func TestSummarize_SharesSumToHundredWithDeltaOnLargest(t *testing.T) {
	// 1/3 each rounds to 33.33; delta 0.01 goes to the largest bucket (first on ties)
	s := Summarize(recs(lifecycle.StatusSubmit, lifecycle.StatusApproved, lifecycle.StatusRejected))

	if !sumShares(s).Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected shares to sum to 100, got %s", sumShares(s))
	}
	if got := s.Bucket(lifecycle.StatusSubmit).Share.String(); got != "33.34" {
		t.Fatalf("expected Submit share 33.34, got %s", got)
	}
	if got := s.Bucket(lifecycle.StatusApproved).Share.String(); got != "33.33" {
		t.Fatalf("expected Approved share 33.33, got %s", got)
	}
}

func TestSummarize_LargestBucketAbsorbsDelta(t *testing.T) {
	in := recs(
		lifecycle.StatusSubmit,
		lifecycle.StatusApproved, lifecycle.StatusApproved, lifecycle.StatusApproved, lifecycle.StatusApproved,
		lifecycle.StatusCanceled,
	)
	s := Summarize(in)
	if !sumShares(s).Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected 100, got %s", sumShares(s))
	}
	// 4/6 = 66.67, 1/6 = 16.67 twice; sum 100.01, so Approved drops to 66.66
	if got := s.Bucket(lifecycle.StatusApproved).Share.String(); got != "66.66" {
		t.Fatalf("expected 66.66, got %s", got)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 {
		t.Fatalf("expected total 0")
	}
	if len(s.Buckets) != len(lifecycle.AllStatuses) {
		t.Fatalf("expected a bucket per status, got %d", len(s.Buckets))
	}
	if !sumShares(s).IsZero() {
		t.Fatalf("expected zero shares")
	}
}

func TestSummarize_UnknownStatusAndNeedsReview(t *testing.T) {
	in := recs(lifecycle.StatusSubmit, lifecycle.Status("Archived"))
	in[0].IsConflicting = true

	s := Summarize(in)
	if s.NeedsReview != 1 {
		t.Fatalf("expected 1 needs review, got %d", s.NeedsReview)
	}
	last := s.Buckets[len(s.Buckets)-1]
	if last.Status != "Archived" || last.Count != 1 {
		t.Fatalf("expected trailing Archived bucket, got %+v", last)
	}
}

func pageOf(n, totalPages int, prefix string) record.Page {
	p := record.Page{}
	for i := 0; i < n; i++ {
		p.Data = append(p.Data, record.Record{ID: prefix})
	}
	p.Pagination.TotalPages = totalPages
	return p
}

func TestGather_ReadsPagesInOrder(t *testing.T) {
	var calls int32
	fetch := func(ctx context.Context, page int) (record.Page, error) {
		atomic.AddInt32(&calls, 1)
		return pageOf(2, 3, string(rune('a'+page-1))), nil
	}
	got, truncated, err := Gather(context.Background(), fetch, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if truncated {
		t.Fatalf("did not expect truncation")
	}
	if len(got) != 6 || got[0].ID != "a" || got[2].ID != "b" || got[5].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestGather_CapsPages(t *testing.T) {
	fetch := func(ctx context.Context, page int) (record.Page, error) {
		return pageOf(1, 50, "x"), nil
	}
	got, truncated, err := Gather(context.Background(), fetch, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !truncated || len(got) != 2 {
		t.Fatalf("expected 2 records truncated, got %d truncated=%v", len(got), truncated)
	}
}

func TestGather_PageFailure(t *testing.T) {
	boom := errors.New("boom")
	fetch := func(ctx context.Context, page int) (record.Page, error) {
		if page == 2 {
			return record.Page{}, boom
		}
		return pageOf(1, 3, "x"), nil
	}
	if _, _, err := Gather(context.Background(), fetch, 5); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
