package pipeline

// Summarize reduces page records to the document verdict. The reported
// confidence is that of the last TOC page in page order.
func Summarize(records []PageRecord) RunSummary {
	summary := RunSummary{
		TOCPages:      []int{},
		PagesExamined: len(records),
	}

	var last *float64
	for _, r := range records {
		if r.Failed() {
			summary.FailedPages = append(summary.FailedPages, r.Page)
			continue
		}
		if r.IsTOC {
			summary.TOCPages = append(summary.TOCPages, r.Page)
			c := r.Confidence
			last = &c
		}
	}

	summary.HasTOC = len(summary.TOCPages) > 0
	summary.Confidence = last
	return summary
}
