package api

import (
	"fmt"
	"mime"
	"strings"

	"golang.org/x/net/html"
)

const maxErrorBodyChars = 512

// Error is returned for non-2xx responses and for `success: false` bodies.
type Error struct {
	Status int
	Body   string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return e.Body
	}
	return fmt.Sprintf("API %d: %s", e.Status, e.Body)
}

// errorBodyText turns a failed response body into a short readable message.
// Proxies in front of the service tend to answer with HTML pages.
func errorBodyText(data []byte, contentType string) string {
	text := strings.TrimSpace(string(data))
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if isHTMLMediaType(mediaType) || strings.HasPrefix(strings.ToLower(text), "<!doctype html") || strings.HasPrefix(strings.ToLower(text), "<html") {
		text = extractTextFromHTML(text)
	}
	text = strings.Join(strings.Fields(text), " ")
	if runes := []rune(text); len(runes) > maxErrorBodyChars {
		text = string(runes[:maxErrorBodyChars]) + "..."
	}
	return text
}

func isHTMLMediaType(mediaType string) bool {
	if mediaType == "" {
		return false
	}
	switch strings.ToLower(mediaType) {
	case "text/html", "application/xhtml+xml":
		return true
	default:
		return strings.HasSuffix(strings.ToLower(mediaType), "+html")
	}
}

func extractTextFromHTML(htmlStr string) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return htmlStr
	}

	var b strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, skip bool) {
		if n.Type == html.ElementNode && isIgnoredHTMLTag(n.Data) {
			skip = true
		}
		if n.Type == html.TextNode && !skip {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}

	walk(doc, false)
	return b.String()
}

func isIgnoredHTMLTag(tag string) bool {
	switch strings.ToLower(tag) {
	case "script", "style", "noscript", "head":
		return true
	default:
		return false
	}
}
