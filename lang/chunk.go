package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Chunk is one provider-sized slice of a text. Sep is the separator that
// followed the slice in the original text: "\n" at a paragraph boundary,
// " " inside a paragraph, "" after the last chunk.
type Chunk struct {
	Text string
	Sep  string
}

// SplitChunks splits text into chunks of at most max runes. Paragraphs
// (separated by "\n") are packed greedily; a paragraph longer than max is
// split at sentence ends, and a single sentence longer than max at the last
// space before the ceiling (or hard at the ceiling when it has none).
// Joining Text+Sep of all chunks reproduces the paragraph structure of text.
func SplitChunks(text string, max int) []Chunk {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return []Chunk{{Text: text}}
	}

	var (
		chunks []Chunk
		cur    []string
		curLen int
	)
	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, Chunk{Text: strings.Join(cur, "\n"), Sep: "\n"})
		cur = nil
		curLen = 0
	}

	for _, p := range strings.Split(text, "\n") {
		pLen := utf8.RuneCountInString(p)

		if pLen > max {
			flush()
			pieces := splitParagraph(p, max)
			if len(pieces) == 0 {
				pieces = []string{""}
			}
			for j, piece := range pieces {
				sep := " "
				if j == len(pieces)-1 {
					sep = "\n"
				}
				chunks = append(chunks, Chunk{Text: piece, Sep: sep})
			}
			continue
		}

		add := pLen
		if len(cur) > 0 {
			add++ // joining "\n"
		}
		if len(cur) > 0 && curLen+add > max {
			flush()
			add = pLen
		}
		cur = append(cur, p)
		curLen += add
	}
	flush()

	if n := len(chunks); n > 0 {
		chunks[n-1].Sep = ""
	}
	return chunks
}

// JoinChunks reassembles translated chunk texts with the original separators.
func JoinChunks(chunks []Chunk, texts []string) string {
	var b strings.Builder
	for i, c := range chunks {
		if i < len(texts) {
			b.WriteString(texts[i])
		} else {
			b.WriteString(c.Text)
		}
		b.WriteString(c.Sep)
	}
	return b.String()
}

// splitParagraph cuts a long paragraph into pieces of at most max runes,
// preferring sentence boundaries. Whitespace between pieces is dropped; the
// caller rejoins with a single space.
func splitParagraph(p string, max int) []string {
	var (
		pieces []string
		cur    strings.Builder
		curLen int
	)
	emit := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			pieces = append(pieces, s)
		}
		cur.Reset()
		curLen = 0
	}

	for _, sentence := range splitSentences(p) {
		sLen := utf8.RuneCountInString(sentence)
		if sLen > max {
			emit()
			pieces = append(pieces, hardSplit(sentence, max)...)
			continue
		}
		if curLen > 0 && curLen+1+sLen > max {
			emit()
		}
		if curLen > 0 {
			cur.WriteString(" ")
			curLen++
		}
		cur.WriteString(sentence)
		curLen += sLen
	}
	emit()
	return pieces
}

// splitSentences splits on ".", "!", "?" and the Devanagari danda when they
// are followed by whitespace. Returned sentences are trimmed.
func splitSentences(p string) []string {
	var (
		out   []string
		start int
	)
	runes := []rune(p)
	for i, r := range runes {
		if !isSentenceEnd(r) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		if s := strings.TrimSpace(string(runes[start:])); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '।', '॥':
		return true
	}
	return false
}

// hardSplit cuts s into pieces of at most max runes at word boundaries when
// possible.
func hardSplit(s string, max int) []string {
	var out []string
	runes := []rune(strings.TrimSpace(s))
	for len(runes) > max {
		cut := max
		for i := max; i > 0; i-- {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
		piece := strings.TrimSpace(string(runes[:cut]))
		if piece != "" {
			out = append(out, piece)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
