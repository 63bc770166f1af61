// Package report renders pipeline results for people and programs.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MeKo-Tech/tocfinder/internal/pipeline"
)

// Format selects how results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat parses a format name. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use text, json or csv)", s)
	}
}

// Presenter shows the outcome of a run. The pipeline never needs one, so it
// can run headless.
type Presenter interface {
	PresentSummary(res *pipeline.Result) error
	PresentError(err error) error
}

// ConsolePresenter writes results to a stream in one of the output formats.
type ConsolePresenter struct {
	out    io.Writer
	errOut io.Writer
	format Format
}

// NewConsolePresenter writes results to out and fatal errors to errOut.
// Nil writers default to stdout and stderr.
func NewConsolePresenter(out, errOut io.Writer, format Format) *ConsolePresenter {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	if format == "" {
		format = FormatText
	}
	return &ConsolePresenter{out: out, errOut: errOut, format: format}
}

// PresentSummary renders the page records followed by the summary.
func (p *ConsolePresenter) PresentSummary(res *pipeline.Result) error {
	if res == nil {
		return errors.New("no result to present")
	}
	switch p.format {
	case FormatJSON:
		return WriteJSON(p.out, res)
	case FormatCSV:
		return WriteCSV(p.out, res)
	default:
		return WriteText(p.out, res)
	}
}

// PresentError reports a run that produced no result. JSON output gets an
// error document on the result stream so consumers always receive JSON.
func (p *ConsolePresenter) PresentError(err error) error {
	if err == nil {
		return nil
	}
	if p.format == FormatJSON {
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]string{"error": err.Error()})
	}
	_, werr := fmt.Fprintf(p.errOut, "Error: %v\n", err)
	return werr
}
