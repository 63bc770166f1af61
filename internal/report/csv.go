package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{"file", "page", "is_toc", "confidence", "error_stage", "error"}

// WriteCSV renders one row per page record of each result under a single header.
func WriteCSV(w io.Writer, results ...*pipeline.Result) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return err
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		if err := writer.WriteAll(CSVRows(res)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// CSVRows returns the data rows WriteCSV emits for res.
func CSVRows(res *pipeline.Result) [][]string {
	rows := make([][]string, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, csvRow(res.Filename, rec))
	}
	return rows
}

func csvRow(file string, rec pipeline.PageRecord) []string {
	stage, msg := "", ""
	if rec.Failed() {
		stage = string(rec.Err.Stage)
		if rec.Err.Err != nil {
			msg = rec.Err.Err.Error()
		}
	}
	return []string{
		file,
		strconv.Itoa(rec.Page),
		strconv.FormatBool(rec.IsTOC),
		strconv.FormatFloat(rec.Confidence, 'f', 3, 64),
		stage,
		msg,
	}
}
