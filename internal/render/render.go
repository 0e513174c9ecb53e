package render

import (
	"cvebot/internal/nvd"
)

// SeverityUnknown is the placeholder label used when a record carries no
// CVSS v3 classification.
const SeverityUnknown = "UNKNOWN"

// Hex colors keyed to CVSS v3 base severity.
const (
	ColorCritical = "#ff0000"
	ColorHigh     = "#ff8c00"
	ColorMedium   = "#ffdf00"
	ColorLow      = "#00ff00"
	ColorDefault  = "#ffffff"
)

// Page is one immutable renderable unit of a result set.
type Page struct {
	Title    string
	Body     string
	Severity string
	Color    string
}

// Render maps one CVE record to a displayable page. It never fails: a
// record without a severity classification degrades to UNKNOWN.
func Render(rec nvd.Record) Page {
	severity := rec.Severity
	if severity == "" {
		severity = SeverityUnknown
	}
	return Page{
		Title:    rec.ID,
		Body:     rec.Description,
		Severity: severity,
		Color:    ColorFor(severity),
	}
}

// Pages renders a whole result set in order.
func Pages(records []nvd.Record) []Page {
	pages := make([]Page, 0, len(records))
	for _, rec := range records {
		pages = append(pages, Render(rec))
	}
	return pages
}

// ColorFor is a total mapping from a severity label to a display color.
func ColorFor(label string) string {
	switch label {
	case "CRITICAL":
		return ColorCritical
	case "HIGH":
		return ColorHigh
	case "MEDIUM":
		return ColorMedium
	case "LOW":
		return ColorLow
	default:
		return ColorDefault
	}
}
