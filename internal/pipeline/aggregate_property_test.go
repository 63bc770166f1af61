package pipeline

import (
	"errors"
	"slices"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// recordsFromCodes builds one record per code, pages numbered from 1.
// Code%3 selects the kind: 0 failed, 1 TOC, 2 regular text. The code itself
// sets the confidence.
func recordsFromCodes(codes []int) []PageRecord {
	records := make([]PageRecord, len(codes))
	for i, c := range codes {
		page := i + 1
		conf := float64(c) / 300
		switch c % 3 {
		case 0:
			records[i] = errorRecord(page, StageRecognize, errors.New("ocr failed"))
		case 1:
			records[i] = PageRecord{Page: page, IsTOC: true, Confidence: conf}
		default:
			records[i] = PageRecord{Page: page, Confidence: conf}
		}
	}
	return records
}

// TestSummarize_TOCPagesProperty verifies TOC pages are exactly the matching
// records in page order and never include failed pages.
func TestSummarize_TOCPagesProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("TOC pages are the matching records in order", prop.ForAll(
		func(codes []int) bool {
			records := recordsFromCodes(codes)
			summary := Summarize(records)

			var want, failed []int
			for _, r := range records {
				if r.Failed() {
					failed = append(failed, r.Page)
				} else if r.IsTOC {
					want = append(want, r.Page)
				}
			}
			if want == nil {
				want = []int{}
			}
			return slices.Equal(summary.TOCPages, want) &&
				slices.Equal(summary.FailedPages, failed) &&
				slices.IsSorted(summary.TOCPages) &&
				summary.HasTOC == (len(want) > 0) &&
				summary.PagesExamined == len(records)
		},
		gen.SliceOfN(12, gen.IntRange(0, 300)),
	))

	properties.TestingRun(t)
}

// TestSummarize_LastMatchConfidenceProperty verifies the reported confidence
// is the last TOC page's, and absent without a TOC.
func TestSummarize_LastMatchConfidenceProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("confidence comes from the last TOC page", prop.ForAll(
		func(codes []int) bool {
			records := recordsFromCodes(codes)
			summary := Summarize(records)

			var last *PageRecord
			for i := range records {
				if records[i].IsTOC && !records[i].Failed() {
					last = &records[i]
				}
			}
			if last == nil {
				return summary.Confidence == nil && !summary.HasTOC
			}
			return summary.Confidence != nil && *summary.Confidence == last.Confidence
		},
		gen.SliceOf(gen.IntRange(0, 300)),
	))

	properties.Property("summarizing is pure", prop.ForAll(
		func(codes []int) bool {
			records := recordsFromCodes(codes)
			before := slices.Clone(records)
			a, b := Summarize(records), Summarize(records)
			return slices.Equal(a.TOCPages, b.TOCPages) &&
				slices.EqualFunc(records, before, func(x, y PageRecord) bool {
					return x.Page == y.Page && x.IsTOC == y.IsTOC && x.Confidence == y.Confidence
				})
		},
		gen.SliceOf(gen.IntRange(0, 300)),
	))

	properties.TestingRun(t)
}
