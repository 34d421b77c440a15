package compiler

import (
	"io"

	"github.com/goccy/go-json"

	"github.com/lhaig/casec/internal/diagnostic"
)

// Report is the machine-readable summary of one file, as printed by
// `casec build -json` and `casec check -json`.
type Report struct {
	File        string                  `json:"file"`
	OK          bool                    `json:"ok"`
	Cached      bool                    `json:"cached,omitempty"`
	Output      string                  `json:"output,omitempty"`
	OutputPath  string                  `json:"output_path,omitempty"`
	Errors      int                     `json:"errors"`
	Warnings    int                     `json:"warnings"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
}

// NewReport summarizes diagnostics for file.
func NewReport(file string, diags *diagnostic.Diagnostics) Report {
	return Report{
		File:        file,
		OK:          !diags.HasErrors(),
		Errors:      len(diags.Errors()),
		Warnings:    len(diags.Warnings()),
		Diagnostics: diags.All(),
	}
}

// Report summarizes the result; the output text is included when
// withOutput is set.
func (r *Result) Report(withOutput bool) Report {
	rep := NewReport(r.File, r.Diagnostics)
	rep.Cached = r.Cached
	if withOutput {
		rep.Output = r.Output
	}
	return rep
}

// WriteReports writes reports as an indented JSON array.
func WriteReports(w io.Writer, reports []Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
