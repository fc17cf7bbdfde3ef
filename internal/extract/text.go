package extract

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the chunk size in runes used for backend uploads.
const DefaultChunkSize = 1000

var (
	inlineSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLines  = regexp.MustCompile(`\n{3,}`)
)

// CleanText normalizes line endings, collapses runs of spaces and keeps at
// most one blank line between paragraphs.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Chunk splits text into pieces of at most size runes. Paragraphs are kept
// whole and packed together when they fit; longer paragraphs are split on
// word boundaries.
func Chunk(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	text = CleanText(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		pl := runeLen(para)
		if pl > size {
			flush()
			chunks = append(chunks, splitWords(para, size)...)
			continue
		}
		sep := 0
		if curLen > 0 {
			sep = 2
		}
		if curLen+sep+pl > size {
			flush()
			sep = 0
		}
		if sep > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
		curLen += sep + pl
	}
	flush()
	return chunks
}

// splitWords breaks s into pieces of at most size runes at spaces. A word
// longer than size is cut.
func splitWords(s string, size int) []string {
	var out []string
	var cur []rune
	for _, word := range strings.Fields(s) {
		w := []rune(word)
		for len(w) > size {
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = cur[:0]
			}
			out = append(out, string(w[:size]))
			w = w[size:]
		}
		need := len(w)
		if len(cur) > 0 {
			need++
		}
		if len(cur)+need > size {
			out = append(out, string(cur))
			cur = cur[:0]
		}
		if len(cur) > 0 {
			cur = append(cur, ' ')
		}
		cur = append(cur, w...)
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
