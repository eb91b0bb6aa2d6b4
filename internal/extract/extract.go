// Package extract scans document text for delimiter-marked math regions and
// produces ordered equation occurrences.
//
// The scanner is a delimiter-driven state machine, not a regex pass: every
// region is either emitted as an occurrence or reported as a recoverable
// Warning, so a malformed equation never silently disappears and never
// aborts extraction of the rest of the document.
//
// Scanning is a pure function of the document text. Byte-identical input
// produces byte-identical occurrence and warning lists, which is what makes
// audit reports diffable across runs.
package extract

import (
	"regexp"
	"strings"
)

// Kind distinguishes display math from inline math.
type Kind string

const (
	// Display marks block math regions ($$…$$ and \[…\]).
	Display Kind = "DISPLAY"

	// Inline marks inline math regions ($…$ and \(…\)).
	Inline Kind = "INLINE"
)

// Occurrence is one equation found in a document, in document order.
type Occurrence struct {
	// Document identifies the source file (corpus-relative path).
	Document string `json:"document"`

	// Section is the text of the nearest preceding heading, "" if none.
	Section string `json:"section"`

	// Index is the occurrence's position within its document, starting
	// at 0. It is the tie-breaker for deterministic report ordering.
	Index int `json:"index"`

	// Kind is DISPLAY or INLINE.
	Kind Kind `json:"kind"`

	// Raw is the region content with the delimiters already removed.
	Raw string `json:"raw"`
}

// Warning reports a malformed math region. Warnings are recoverable: the
// scanner skips to the next boundary and keeps going.
type Warning struct {
	Document  string `json:"document"`
	Section   string `json:"section"`
	Offset    int    `json:"offset"`    // byte offset of the opening delimiter
	Delimiter string `json:"delimiter"` // the opener that failed to close
	Reason    string `json:"reason"`
}

// Result is the outcome of scanning one document.
type Result struct {
	Occurrences []Occurrence
	Warnings    []Warning
}

// htmlHeadingPattern matches a single-line HTML heading like <h2>Title</h2>.
var htmlHeadingPattern = regexp.MustCompile(`(?i)<h[1-6][^>]*>(.*?)</h[1-6]>`)

// Scan extracts every math region from text, attributing each occurrence to
// the nearest preceding heading. Unterminated or mismatched regions produce
// a Warning and scanning resumes at the next paragraph break.
func Scan(document, text string) Result {
	s := &scanner{document: document, text: text}
	s.run()
	return Result{Occurrences: s.occurrences, Warnings: s.warnings}
}

// scanner holds the state machine's cursor and accumulated output.
type scanner struct {
	document string
	text     string
	pos      int
	section  string
	index    int

	occurrences []Occurrence
	warnings    []Warning
}

// opener describes one recognized delimiter convention. Longest openers are
// tried first so $$ is never misread as two inline $ markers.
type opener struct {
	open  string
	close string
	kind  Kind
}

var openers = []opener{
	{"$$", "$$", Display},
	{`\[`, `\]`, Display},
	{`\(`, `\)`, Inline},
	{"$", "$", Inline},
}

func (s *scanner) run() {
	for s.pos < len(s.text) {
		if s.atLineStart() {
			if consumed := s.scanHeading(); consumed {
				continue
			}
		}

		c := s.text[s.pos]
		if c == '\\' && s.pos+1 < len(s.text) && s.text[s.pos+1] == '$' {
			// Escaped dollar is literal text, never a delimiter.
			s.pos += 2
			continue
		}
		if c != '$' && c != '\\' {
			s.pos++
			continue
		}

		matched := false
		for _, o := range openers {
			if strings.HasPrefix(s.text[s.pos:], o.open) {
				s.scanRegion(o)
				matched = true
				break
			}
		}
		if !matched {
			s.pos++
		}
	}
}

// atLineStart reports whether the cursor sits at the beginning of a line.
func (s *scanner) atLineStart() bool {
	return s.pos == 0 || s.text[s.pos-1] == '\n'
}

// scanHeading updates the current section when the cursor's line is a
// markdown ATX heading or a single-line HTML heading. Returns true when the
// line was consumed as a heading.
func (s *scanner) scanHeading() bool {
	lineEnd := strings.IndexByte(s.text[s.pos:], '\n')
	var line string
	if lineEnd < 0 {
		line = s.text[s.pos:]
		lineEnd = len(s.text) - s.pos
	} else {
		line = s.text[s.pos : s.pos+lineEnd]
		lineEnd++ // consume the newline as well
	}

	if title, ok := atxHeading(line); ok {
		s.section = title
		s.pos += lineEnd
		return true
	}
	if m := htmlHeadingPattern.FindStringSubmatch(line); m != nil {
		s.section = strings.TrimSpace(m[1])
		s.pos += lineEnd
		return true
	}
	return false
}

// atxHeading parses a markdown heading line ("## Title ##" → "Title").
func atxHeading(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	hashes := 0
	for hashes < len(trimmed) && trimmed[hashes] == '#' {
		hashes++
	}
	if hashes == 0 || hashes > 6 {
		return "", false
	}
	rest := trimmed[hashes:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "", false
	}
	title := strings.TrimSpace(rest)
	title = strings.TrimRight(title, "#")
	return strings.TrimSpace(title), true
}

// scanRegion consumes one math region starting at the cursor. On success it
// emits an Occurrence; on a missing closer it emits a Warning and skips to
// the next paragraph break so the rest of the document still gets scanned.
func (s *scanner) scanRegion(o opener) {
	start := s.pos
	contentStart := start + len(o.open)

	end := s.findCloser(contentStart, o.close)
	boundary := s.recoveryBoundary(contentStart)

	if end < 0 || (o.kind == Inline && boundary < end) {
		reason := "unterminated math region"
		if end >= 0 {
			reason = "inline math region crosses a paragraph break"
		}
		s.warnings = append(s.warnings, Warning{
			Document:  s.document,
			Section:   s.section,
			Offset:    start,
			Delimiter: o.open,
			Reason:    reason,
		})
		s.pos = boundary
		return
	}

	s.occurrences = append(s.occurrences, Occurrence{
		Document: s.document,
		Section:  s.section,
		Index:    s.index,
		Kind:     o.kind,
		Raw:      s.text[contentStart:end],
	})
	s.index++
	s.pos = end + len(o.close)
}

// findCloser returns the byte offset of the next unescaped closer at or
// after from, or -1.
func (s *scanner) findCloser(from int, close string) int {
	for i := from; i+len(close) <= len(s.text); i++ {
		if !strings.HasPrefix(s.text[i:], close) {
			continue
		}
		if close == "$" && i > 0 && s.text[i-1] == '\\' {
			continue
		}
		return i
	}
	return -1
}

// recoveryBoundary returns the offset of the next blank line after from, or
// the end of the document. A blank line is the closest thing prose has to a
// delimiter boundary, so malformed regions are abandoned there.
func (s *scanner) recoveryBoundary(from int) int {
	if i := strings.Index(s.text[from:], "\n\n"); i >= 0 {
		return from + i + 1
	}
	return len(s.text)
}
