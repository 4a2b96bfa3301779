package narration

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultTargetSize  = 1200
	DefaultMaxSegments = 10
)

// Chunker splits narration text into segments the speech API accepts in one call.
// Sizes are counted in runes.
type Chunker struct {
	TargetSize  int
	MaxSegments int
}

// Split is the outcome of chunking one text.
type Split struct {
	Segments []string
	// Truncated is set when MaxSegments cut off the tail of the text.
	Truncated    bool
	DroppedRunes int
}

// Split chunks text. Sentences keep their trailing whitespace, so joining the
// segments of an untruncated split gives back the trimmed input.
func (c Chunker) Split(text string) Split {
	text = strings.TrimSpace(text)
	if text == "" {
		return Split{}
	}

	target := c.TargetSize
	if target <= 0 {
		target = DefaultTargetSize
	}
	maxSegments := c.MaxSegments
	if maxSegments <= 0 {
		maxSegments = DefaultMaxSegments
	}

	if utf8.RuneCountInString(text) <= target {
		return Split{Segments: []string{text}}
	}

	segments := pack(splitSentences(text), target)
	if len(segments) <= maxSegments {
		return Split{Segments: segments}
	}

	dropped := 0
	for _, s := range segments[maxSegments:] {
		dropped += utf8.RuneCountInString(s)
	}

	return Split{
		Segments:     segments[:maxSegments],
		Truncated:    true,
		DroppedRunes: dropped,
	}
}

// pack greedily fills segments up to target runes. A sentence longer than
// target is cut at target-rune boundaries; its remainder opens the next segment.
func pack(sentences []string, target int) []string {
	var (
		segments []string
		current  strings.Builder
		size     int
	)

	flush := func() {
		if size > 0 {
			segments = append(segments, current.String())
			current.Reset()
			size = 0
		}
	}

	for _, sentence := range sentences {
		n := utf8.RuneCountInString(sentence)

		if n > target {
			flush()
			runes := []rune(sentence)
			for len(runes) > target {
				segments = append(segments, string(runes[:target]))
				runes = runes[target:]
			}
			current.WriteString(string(runes))
			size = len(runes)
			continue
		}

		if size+n > target {
			flush()
		}
		current.WriteString(sentence)
		size += n
	}
	flush()

	return segments
}

// splitSentences cuts after '.', '!' or '?' followed by whitespace and then an
// upper-case letter, a digit or a quote. The whitespace stays with the sentence before it.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if r != '.' && r != '!' && r != '?' {
			continue
		}

		j := i
		for j < len(text) {
			ws, wsSize := utf8.DecodeRuneInString(text[j:])
			if !unicode.IsSpace(ws) {
				break
			}
			j += wsSize
		}
		if j == i || j >= len(text) {
			continue
		}

		next, _ := utf8.DecodeRuneInString(text[j:])
		if unicode.IsUpper(next) || unicode.IsDigit(next) || isQuote(next) {
			sentences = append(sentences, text[start:j])
			start = j
			i = j
		}
	}

	if start < len(text) {
		sentences = append(sentences, text[start:])
	}

	return sentences
}

func isQuote(r rune) bool {
	switch r {
	case '"', '\'', '“', '‘', '«':
		return true
	}
	return false
}

// Concat joins per-segment MP3 audio in order. Independently encoded CBR MP3
// streams stay playable when their bytes are appended.
func Concat(parts [][]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}

	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
