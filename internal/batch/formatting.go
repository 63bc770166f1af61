package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/tocfinder/internal/report"
)

// FormatResults renders every item of the batch in the given format.
func (r *Result) FormatResults(format report.Format) (string, error) {
	var b strings.Builder
	var err error
	switch format {
	case report.FormatJSON:
		err = r.writeJSON(&b)
	case report.FormatCSV:
		err = r.writeCSV(&b)
	default:
		err = r.writeText(&b)
	}
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// SaveResults writes the formatted results to outputFile, or to w when no
// file is given.
func (r *Result) SaveResults(format report.Format, outputFile string, w io.Writer) error {
	output, err := r.FormatResults(format)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}
	_, err = io.WriteString(w, output)
	return err
}

// PrintStats writes processing statistics to w.
func (r *Result) PrintStats(w io.Writer) {
	s := r.Stats()
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Total documents: %d\n", s.Total)
	_, _ = fmt.Fprintf(w, "  Processed: %d\n", s.Succeeded)
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", s.Failed)
	if s.Skipped > 0 {
		_, _ = fmt.Fprintf(w, "  Skipped: %d\n", s.Skipped)
	}
	_, _ = fmt.Fprintf(w, "  With TOC: %d\n", s.WithTOC)
	_, _ = fmt.Fprintf(w, "  Workers: %d\n", r.Workers)
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
}

func (r *Result) writeText(w io.Writer) error {
	for i, item := range r.Items {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		var err error
		switch {
		case item.Result != nil:
			err = report.WriteText(w, item.Result)
		case item.Err != nil:
			_, err = fmt.Fprintf(w, "File: %s\nError: %v\n", item.Path, item.Err)
		default:
			_, err = fmt.Fprintf(w, "File: %s\nSkipped\n", item.Path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// jsonItem is one document in the JSON batch output.
type jsonItem struct {
	File    string `json:"file"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Skipped bool   `json:"skipped,omitempty"`
	Result  any    `json:"result,omitempty"`
}

func (r *Result) writeJSON(w io.Writer) error {
	out := struct {
		Documents []jsonItem `json:"documents"`
		Stats     Stats      `json:"stats"`
	}{Documents: make([]jsonItem, 0, len(r.Items)), Stats: r.Stats()}

	for _, item := range r.Items {
		ji := jsonItem{File: item.Path}
		switch {
		case item.Result != nil:
			ji.Message = report.SummaryLine(item.Result)
			ji.Result = item.Result
		case item.Err != nil:
			ji.Error = item.Err.Error()
		default:
			ji.Skipped = true
		}
		out.Documents = append(out.Documents, ji)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeCSV emits page rows for scanned documents and a single "document"
// error row for documents that failed as a whole.
func (r *Result) writeCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(report.CSVHeader); err != nil {
		return err
	}
	for _, item := range r.Items {
		switch {
		case item.Result != nil:
			if err := writer.WriteAll(report.CSVRows(item.Result)); err != nil {
				return err
			}
		case item.Err != nil:
			if err := writer.Write([]string{item.Path, "", "false", "0.000", "document", item.Err.Error()}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
