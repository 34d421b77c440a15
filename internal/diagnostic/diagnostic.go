package diagnostic

import (
	"fmt"
	"sort"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText lets reports carry the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic represents a single compiler error, warning, or info message
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code,omitempty"` // stable identifier, e.g. "E0102"
	Message  string   `json:"message"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	File     string   `json:"file,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

// Diagnostics manages a collection of diagnostic messages
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{
		items: make([]Diagnostic, 0),
	}
}

// Add appends a fully built diagnostic.
func (d *Diagnostics) Add(item Diagnostic) {
	d.items = append(d.items, item)
}

// Errorf adds an error diagnostic with formatted message
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// CodedErrorf adds an error diagnostic carrying a stable code.
func (d *Diagnostics) CodedErrorf(code string, line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// Warningf adds a warning diagnostic with formatted message
func (d *Diagnostics) Warningf(line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// WarningWithHint adds a warning diagnostic with an optional hint
func (d *Diagnostics) WarningWithHint(code string, line, col int, msg, hint string) {
	d.items = append(d.items, Diagnostic{
		Severity: Warning,
		Code:     code,
		Message:  msg,
		Line:     line,
		Column:   col,
		Hint:     hint,
	})
}

// Merge appends every diagnostic of other, tagging entries without a file.
func (d *Diagnostics) Merge(file string, other *Diagnostics) {
	if other == nil {
		return
	}
	for _, item := range other.items {
		if item.File == "" {
			item.File = file
		}
		d.items = append(d.items, item)
	}
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	return d.filter(Error)
}

// Warnings returns only the warning-level diagnostics
func (d *Diagnostics) Warnings() []Diagnostic {
	return d.filter(Warning)
}

func (d *Diagnostics) filter(s Severity) []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == s {
			out = append(out, item)
		}
	}
	return out
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// Sort orders diagnostics by file, then position. The order among
// diagnostics at the same position is preserved.
func (d *Diagnostics) Sort() {
	sort.SliceStable(d.items, func(i, j int) bool {
		a, b := d.items[i], d.items[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}

// Format returns human-readable messages
// Output format:
//
//	error[E0201][main.case:3:10]: clause 2: guard references unbound name 'z'
//	  hint: bind 'z' in the pattern or an enclosing let
//	warning[main.case:5:5]: clause 3 is unreachable
func (d *Diagnostics) Format(filename string) string {
	if len(d.items) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, item := range d.items {
		fileToUse := filename
		if item.File != "" {
			fileToUse = item.File
		}

		builder.WriteString(item.Severity.String())
		if item.Code != "" {
			builder.WriteString("[" + item.Code + "]")
		}
		builder.WriteString(fmt.Sprintf("[%s:%d:%d]: %s",
			fileToUse,
			item.Line,
			item.Column,
			item.Message,
		))

		if item.Hint != "" {
			builder.WriteString(fmt.Sprintf("\n  hint: %s", item.Hint))
		}

		if i < len(d.items)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}
