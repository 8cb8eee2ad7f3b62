// Package spin resolves spin syntax: "{a|b|c}" groups are replaced in place
// by one alternative chosen through an injected random Source.
//
// A group is a "{" followed by text containing at least one "|" and no other
// brace, closed by "}". Brace runs that don't form a group (placeholders such
// as "{{name}}", "{single}", an unclosed "{") are copied through unchanged.
package spin

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Source picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Default returns a Source backed by the package-level math/rand/v2
// generator. It is safe for concurrent use.
func Default() Source { return globalSource{} }

// NewSeeded returns a reproducible Source. It is not safe for concurrent use;
// create one per render.
func NewSeeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Fixed always picks the same alternative. Indexes past the end of a group
// wrap around.
type Fixed int

func (f Fixed) IntN(n int) int {
	i := int(f) % n
	if i < 0 {
		i += n
	}
	return i
}

// Resolve replaces every well-formed group in content with one alternative.
// A "{{" run is copied through as one unit, up to its "}}" when there is
// one, so kept or broken placeholders are never spun.
func Resolve(content string, rng Source) string {
	if !strings.ContainsRune(content, '{') {
		return content
	}

	var b strings.Builder
	b.Grow(len(content))

	for i := 0; i < len(content); {
		if content[i] != '{' {
			b.WriteByte(content[i])
			i++
			continue
		}

		if n := placeholderLen(content[i:]); n > 0 {
			b.WriteString(content[i : i+n])
			i += n
			continue
		}

		end := closingBrace(content, i)
		if end > 0 {
			body := content[i+1 : end]
			if strings.IndexByte(body, '|') >= 0 {
				options := strings.Split(body, "|")
				b.WriteString(options[rng.IntN(len(options))])
				i = end + 1
				continue
			}
		}

		b.WriteByte('{')
		i++
	}

	return b.String()
}

// closingBrace returns the index of the "}" closing the brace at open, or -1
// when another "{" or the end of the string comes first.
func closingBrace(s string, open int) int {
	for j := open + 1; j < len(s); j++ {
		switch s[j] {
		case '}':
			return j
		case '{':
			return -1
		}
	}
	return -1
}

// placeholderLen returns the length of the "{{" run at the start of s: through
// the next "}}", or just the "{{" when it is never closed. It returns 0 when
// s does not start with "{{".
func placeholderLen(s string) int {
	if !strings.HasPrefix(s, "{{") {
		return 0
	}
	if end := strings.Index(s[2:], "}}"); end >= 0 {
		return 2 + end + 2
	}
	return 2
}

// MalformedGroup is a non-fatal lint finding. Resolve leaves the offending
// text as a literal.
type MalformedGroup struct {
	Offset int    `json:"offset"`
	Reason string `json:"reason"`
}

func (m MalformedGroup) Error() string {
	return fmt.Sprintf("malformed spin group at offset %d: %s", m.Offset, m.Reason)
}

// Lint reports unbalanced braces in content. Placeholders ("{{name}}") are
// skipped as a unit. Nothing is repaired.
func Lint(content string) []MalformedGroup {
	var found []MalformedGroup

	for i := 0; i < len(content); {
		switch content[i] {
		case '{':
			if n := placeholderLen(content[i:]); n > 0 {
				if !strings.HasSuffix(content[i:i+n], "}}") {
					found = append(found, MalformedGroup{Offset: i, Reason: "unclosed placeholder"})
				}
				i += n
				continue
			}
			end := closingBrace(content, i)
			if end < 0 {
				found = append(found, MalformedGroup{Offset: i, Reason: "unclosed spin group"})
				i++
				continue
			}
			i = end + 1
		case '}':
			found = append(found, MalformedGroup{Offset: i, Reason: "unmatched closing brace"})
			i++
		default:
			i++
		}
	}

	return found
}
