package diskimg

import "fmt"

// Severity classifies a Note for display; it never affects return values
// (spec.md §7 "User-visible behavior").
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "Warning"
	}
	return "Info"
}

// Note is one append-only, user-visible entry collected while an image is
// analyzed (e.g. "Sectors use non-standard data checksums; writing
// disabled"). Notes never change what an operation returns.
type Note struct {
	Severity Severity
	Message  string
}

// noteList is an append-only log of Notes, embedded in DiskImage.
type noteList struct {
	notes []Note
}

func (n *noteList) add(sev Severity, format string, args ...interface{}) {
	n.notes = append(n.notes, Note{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

func (n *noteList) Info(format string, args ...interface{})    { n.add(SeverityInfo, format, args...) }
func (n *noteList) Warn(format string, args ...interface{})    { n.add(SeverityWarning, format, args...) }
func (n *noteList) Notes() []Note                              { return append([]Note(nil), n.notes...) }
func (n *noteList) HasWarnings() bool {
	for _, note := range n.notes {
		if note.Severity == SeverityWarning {
			return true
		}
	}
	return false
}
