package htmlutil

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var multipleSpacesPattern = regexp.MustCompile(`\s{2,}`)

// blockTags end a line of text when they open or close.
var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.Ul: true, atom.Ol: true, atom.Blockquote: true, atom.Tr: true,
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
}

// skippedTags have content that is never shown as text.
var skippedTags = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Head: true, atom.Template: true,
}

// StripTags reduces an HTML fragment to plain text. Block-level elements
// become line breaks, entities are decoded, and whitespace is collapsed
// within each line. Blank lines are dropped.
func StripTags(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	skipDepth := 0
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Unparseable input is treated as text.
				return normalizeWhitespace(decodeHTMLEntities(s))
			}
			break
		}

		tok := z.Token()
		switch tt {
		case html.TextToken:
			if skipDepth == 0 {
				b.WriteString(tok.Data)
			}
		case html.StartTagToken:
			if skippedTags[tok.DataAtom] {
				skipDepth++
			}
			if blockTags[tok.DataAtom] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if skippedTags[tok.DataAtom] && skipDepth > 0 {
				skipDepth--
			}
			if blockTags[tok.DataAtom] {
				b.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			if blockTags[tok.DataAtom] {
				b.WriteByte('\n')
			}
		}
	}

	return normalizeWhitespace(b.String())
}

func normalizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(multipleSpacesPattern.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func decodeHTMLEntities(s string) string {
	return html.UnescapeString(s)
}
