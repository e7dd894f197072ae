// internal/review/router.go

// Package review routes classified candidates into disposition buckets:
// auto-accepted new items, suspected duplicates for human review,
// rejected incompletes, and already-known items.
package review

import (
	"github.com/modestry/catalogpipe/internal/catalog"
	"github.com/modestry/catalogpipe/internal/diff"
)

// ReviewItem is one suspected duplicate prepared for a human reviewer:
// the new candidate, the baseline record it resembles, and the score.
type ReviewItem struct {
	Candidate catalog.ProductCandidate `json:"candidate"`
	Baseline  *catalog.BaselineRecord  `json:"baseline"`
	Score     float64                  `json:"score"`
}

// RejectedItem preserves the discard reason for diagnostics.
type RejectedItem struct {
	Candidate catalog.ProductCandidate `json:"candidate"`
	Reason    string                   `json:"reason"`
}

// RoutingPlan partitions classified candidates. Every input lands in
// exactly one bucket.
type RoutingPlan struct {
	AutoNew              []catalog.ProductCandidate `json:"auto_new"`
	NeedsDuplicateReview []ReviewItem               `json:"needs_duplicate_review"`
	RejectedIncomplete   []RejectedItem             `json:"rejected_incomplete"`
	Known                []catalog.ProductCandidate `json:"known"`
}

// Counts summarizes bucket sizes for reporting.
type Counts struct {
	AutoNew              int `json:"auto_new"`
	NeedsDuplicateReview int `json:"needs_duplicate_review"`
	RejectedIncomplete   int `json:"rejected_incomplete"`
	Known                int `json:"known"`
}

// Route disposes of each classification. NEW candidates go to auto_new
// (still subject to the external modesty review), SUSPECTED_DUPLICATE to
// the human review queue, INCOMPLETE to rejected with reason preserved,
// and KNOWN items need no further action.
func Route(classified []diff.Classified) RoutingPlan {
	var plan RoutingPlan
	for _, c := range classified {
		switch c.Classification.Kind {
		case catalog.ClassNew:
			plan.AutoNew = append(plan.AutoNew, c.Candidate)
		case catalog.ClassSuspectedDuplicate:
			plan.NeedsDuplicateReview = append(plan.NeedsDuplicateReview, ReviewItem{
				Candidate: c.Candidate,
				Baseline:  c.Classification.Baseline,
				Score:     c.Classification.Score,
			})
		case catalog.ClassIncomplete:
			plan.RejectedIncomplete = append(plan.RejectedIncomplete, RejectedItem{
				Candidate: c.Candidate,
				Reason:    c.Classification.Reason,
			})
		case catalog.ClassKnown:
			plan.Known = append(plan.Known, c.Candidate)
		}
	}
	return plan
}

// Counts returns the bucket sizes.
func (p RoutingPlan) Counts() Counts {
	return Counts{
		AutoNew:              len(p.AutoNew),
		NeedsDuplicateReview: len(p.NeedsDuplicateReview),
		RejectedIncomplete:   len(p.RejectedIncomplete),
		Known:                len(p.Known),
	}
}

// Total returns the number of routed candidates across all buckets.
func (p RoutingPlan) Total() int {
	c := p.Counts()
	return c.AutoNew + c.NeedsDuplicateReview + c.RejectedIncomplete + c.Known
}
