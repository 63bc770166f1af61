package report

import (
	"encoding/json"
	"io"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// jsonResult adds the human summary line to the result envelope.
type jsonResult struct {
	*pipeline.Result
	Message string `json:"message"`
}

// WriteJSON renders a result as indented JSON.
func WriteJSON(w io.Writer, res *pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResult{Result: res, Message: SummaryLine(res)})
}

// WriteJSONList renders several results as one JSON array.
func WriteJSONList(w io.Writer, results []*pipeline.Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			out = append(out, jsonResult{Result: res, Message: SummaryLine(res)})
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
