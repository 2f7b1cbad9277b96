package stats

import (
	"github.com/shopspring/decimal"

	"resourcedesk/internal/lifecycle"
	"resourcedesk/internal/record"
)

const ShareScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Bucket is one status in a distribution. Share is a percentage of Total.
type Bucket struct {
	Status lifecycle.Status `json:"status"`
	Count  int              `json:"count"`
	Share  decimal.Decimal  `json:"share"`
}

type Summary struct {
	Total       int      `json:"total"`
	Buckets     []Bucket `json:"buckets"`
	NeedsReview int      `json:"needs_review"`
	// Truncated is set when not every backend page was read.
	Truncated bool `json:"truncated"`
}

// Summarize counts records per status, in lifecycle order. Statuses the
// backend sent that are not in the taxonomy get trailing buckets in first-seen
// order.
//
// Rules:
// - Shares are rounded to ShareScale places.
// - Any rounding delta goes to the largest bucket so shares sum to exactly 100.
// - An empty input yields zero shares and no delta.
func Summarize(recs []record.Record) Summary {
	counts := map[lifecycle.Status]int{}
	var extra []lifecycle.Status
	s := Summary{Total: len(recs)}

	for _, r := range recs {
		if _, seen := counts[r.Status]; !seen && !r.Status.Valid() {
			extra = append(extra, r.Status)
		}
		counts[r.Status]++
		if lifecycle.ClassifyConflict(r.Status, r.Conflicting()) == lifecycle.ClassNeedsReview {
			s.NeedsReview++
		}
	}

	order := append(append([]lifecycle.Status{}, lifecycle.AllStatuses...), extra...)
	s.Buckets = make([]Bucket, 0, len(order))
	for _, st := range order {
		s.Buckets = append(s.Buckets, Bucket{Status: st, Count: counts[st], Share: decimal.Zero})
	}
	if s.Total == 0 {
		return s
	}

	total := decimal.NewFromInt(int64(s.Total))
	sum := decimal.Zero
	largest := 0
	for i := range s.Buckets {
		b := &s.Buckets[i]
		b.Share = decimal.NewFromInt(int64(b.Count)).Mul(hundred).Div(total).Round(ShareScale)
		sum = sum.Add(b.Share)
		if b.Count > s.Buckets[largest].Count {
			largest = i
		}
	}
	if delta := hundred.Sub(sum); !delta.IsZero() {
		s.Buckets[largest].Share = s.Buckets[largest].Share.Add(delta).Round(ShareScale)
	}
	return s
}

// Bucket returns the bucket for st, or a zero bucket.
func (s Summary) Bucket(st lifecycle.Status) Bucket {
	for _, b := range s.Buckets {
		if b.Status == st {
			return b
		}
	}
	return Bucket{Status: st, Share: decimal.Zero}
}
