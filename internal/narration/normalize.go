package narration

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// tags whose end starts a new line of speech
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "tr": true, "section": true, "article": true, "figure": true,
}

// Normalize turns an HTML or markdown blog body into plain narration text.
func Normalize(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))

	var b strings.Builder
	skipping := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return collapseWhitespace(b.String())

		case html.TextToken:
			if skipping == 0 {
				b.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skipping++
				}
			case tag == "br":
				b.WriteByte('\n')
			case tag == "img" || tag == "hr":
				b.WriteByte(' ')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				if skipping > 0 {
					skipping--
				}
			case blockTags[tag]:
				b.WriteByte('\n')
			}
		}
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NarrationText builds the text that is read aloud: the title, a pause, then the body.
func NarrationText(title, content string, minLength int) (string, error) {
	body := Normalize(content)
	if n := utf8.RuneCountInString(body); n < minLength {
		return "", fmt.Errorf("%w: %d characters, need %d", ErrTextTooShort, n, minLength)
	}

	title = collapseWhitespace(title)
	if title == "" {
		return body, nil
	}

	return title + "\n\n" + body, nil
}
