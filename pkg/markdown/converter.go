package markdown

import (
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	paragraphPattern = regexp.MustCompile(`(?s)<p>(.*?)</p>`)
	codeBlockPattern = regexp.MustCompile(`(?s)<pre><code(?: class="[^"]*")?>(.*?)</code></pre>`)
	tagPattern       = regexp.MustCompile(`</?([a-zA-Z0-9]+)(?:\s[^>]*)?/?>`)
	newlinesPattern  = regexp.MustCompile(`\n{3,}`)
)

// tags a chat bubble may carry
var supportedTags = map[string]bool{
	"b": true, "i": true, "s": true, "del": true, "code": true, "pre": true, "a": true, "br": true,
}

const rendererFlags = blackfriday.SkipHTML | blackfriday.Safelink | blackfriday.NofollowLinks |
	blackfriday.NoreferrerLinks | blackfriday.HrefTargetBlank

// ToChatHTML converts a markdown reply line to the HTML subset a chat bubble renders
func ToChatHTML(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}

	html := string(blackfriday.Run([]byte(markdown),
		blackfriday.WithExtensions(blackfriday.CommonExtensions),
		blackfriday.WithRenderer(blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
			Flags: rendererFlags,
		}))))

	return cleanHTML(html)
}

// LinesToChatHTML renders every line and joins them with line breaks
func LinesToChatHTML(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if html := ToChatHTML(line); html != "" {
			out = append(out, html)
		}
	}
	return strings.Join(out, "<br>")
}

func cleanHTML(html string) string {
	// Remove wrapping <p> tags
	html = paragraphPattern.ReplaceAllString(html, "$1\n")

	html = strings.ReplaceAll(html, "<strong>", "<b>")
	html = strings.ReplaceAll(html, "</strong>", "</b>")
	html = strings.ReplaceAll(html, "<em>", "<i>")
	html = strings.ReplaceAll(html, "</em>", "</i>")

	html = codeBlockPattern.ReplaceAllString(html, "<pre>$1</pre>")

	// Flatten lists into bullet lines
	html = strings.ReplaceAll(html, "<li>", "• ")
	html = strings.ReplaceAll(html, "</li>", "\n")

	html = tagPattern.ReplaceAllStringFunc(html, func(match string) string {
		if m := tagPattern.FindStringSubmatch(match); len(m) > 1 && supportedTags[strings.ToLower(m[1])] {
			return match
		}
		return ""
	})

	html = newlinesPattern.ReplaceAllString(html, "\n\n")
	return strings.TrimSpace(html)
}
