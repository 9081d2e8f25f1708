package diag

import (
	"fmt"
	"sort"

	"github.com/cbegin/abcscore-go/internal/ast"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	}
	return "unknown"
}

// Diagnostic is a non-fatal problem found while analyzing or interpreting
// a file. NodeID refers to the offending AST node.
type Diagnostic struct {
	Message  string    `json:"message"`
	NodeID   int       `json:"node"`
	Range    ast.Range `json:"range"`
	Severity Severity  `json:"severity"`
}

// String renders the diagnostic with one-based line and character numbers.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line+1, d.Range.Start.Char+1, d.Severity, d.Message)
}

type Collector struct {
	items []Diagnostic
}

func (c *Collector) Add(n ast.Node, sev Severity, format string, args ...any) {
	d := Diagnostic{Message: fmt.Sprintf(format, args...), Severity: sev}
	if n != nil {
		d.NodeID = n.ID()
		d.Range = n.Range()
	}
	c.items = append(c.items, d)
}

func (c *Collector) Warn(n ast.Node, format string, args ...any) {
	c.Add(n, SeverityWarning, format, args...)
}

func (c *Collector) Error(n ast.Node, format string, args ...any) {
	c.Add(n, SeverityError, format, args...)
}

func (c *Collector) Items() []Diagnostic { return c.items }

func (c *Collector) Len() int { return len(c.items) }

// Sort orders diagnostics by source position, keeping insertion order for
// diagnostics that start at the same place.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i].Range.Start, ds[j].Range.Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Char < b.Char
	})
}
