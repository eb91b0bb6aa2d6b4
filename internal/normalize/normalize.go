// Package normalize maps raw equation text to a canonical comparison string.
//
// The same pipeline is applied to formula display variants and to equations
// extracted from documents, so the two sides compare as exact strings.
// Normalization is purely textual: it never attempts algebraic equivalence
// (a+b and b+a stay distinct).
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// delimiterPair is a recognized math-region delimiter convention.
type delimiterPair struct {
	open  string
	close string
}

// delimiterPairs lists the delimiters stripped by rule 1, longest open first
// so "$$" wins over "$".
var delimiterPairs = []delimiterPair{
	{"$$", "$$"},
	{`\[`, `\]`},
	{`\(`, `\)`},
	{"$", "$"},
}

// substitutions unifies macro spellings that render identically.
// Order matters: longer macros come before their prefixes. Overlapping
// spellings (`\left\left((`) can collapse one layer per application; the
// fixed-point loop in Normalize absorbs the rest.
var substitutions = strings.NewReplacer(
	`\dfrac`, `\frac`,
	`\tfrac`, `\frac`,
	`\left(`, `(`,
	`\right)`, `)`,
	`\left[`, `[`,
	`\right]`, `]`,
	`\cdots`, `\dots`,
	`\qquad`, ` `,
	`\quad`, ` `,
	`\,`, ` `,
	`\;`, ` `,
	`\:`, ` `,
	`\!`, ` `,
)

// trailingPunctuation lists prose punctuation stripped by rule 4.
const trailingPunctuation = ".,;"

// Normalize canonicalizes raw equation text. Rules apply in fixed order:
//
//  1. strip delimiter markers ($$…$$, \[…\], \(…\), $…$)
//  2. NFC-normalize and collapse all whitespace runs to a single space, trim
//  3. unify equivalent macro spellings via the fixed substitution table
//  4. strip trailing prose punctuation (periods, commas, semicolons)
//
// Case is preserved throughout: M and m denote different quantities, so
// normalization never lower-cases.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x). Later
// rules can expose work for earlier ones — stripping a trailing period can
// reveal a delimiter suffix ("$E = mc^2$." -> "$E = mc^2$"), and
// overlapping macro spellings collapse one layer per substitution pass —
// so the pipeline repeats until the string stops changing. Every rule only
// removes characters, which bounds the iteration.
func Normalize(raw string) string {
	s := raw
	for {
		next := normalizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

// normalizeOnce applies rules 1-4 in order, once.
func normalizeOnce(s string) string {
	s = stripDelimiters(s)
	s = collapseWhitespace(norm.NFC.String(s))
	// Substitutions may leave adjacent spaces (spacing macros map to a
	// single space), so the collapse is re-applied as part of rule 3.
	s = collapseWhitespace(substitutions.Replace(s))
	return stripTrailingPunctuation(s)
}

// stripDelimiters removes matched outer delimiter pairs. Stripping repeats
// until no pair remains so that already-normalized input passes through
// unchanged even when a display variant nests one convention in another.
func stripDelimiters(s string) string {
	for {
		trimmed := strings.TrimSpace(s)
		stripped, ok := stripOnePair(trimmed)
		if !ok {
			return trimmed
		}
		s = stripped
	}
}

// stripOnePair removes the outermost delimiter pair if present.
func stripOnePair(s string) (string, bool) {
	for _, p := range delimiterPairs {
		if len(s) <= len(p.open)+len(p.close) {
			continue
		}
		if strings.HasPrefix(s, p.open) && strings.HasSuffix(s, p.close) {
			return s[len(p.open) : len(s)-len(p.close)], true
		}
	}
	return s, false
}

// collapseWhitespace converts every whitespace run (spaces, tabs, newlines)
// to a single space and trims both ends.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripTrailingPunctuation drops prose punctuation that leaks into an
// equation from the surrounding sentence.
func stripTrailingPunctuation(s string) string {
	s = strings.TrimRight(s, trailingPunctuation)
	return strings.TrimRight(s, " ")
}
