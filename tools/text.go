package tools

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	tags       = regexp.MustCompile(`<[^>]*>`)
)

// htmlToText flattens an HTML fragment into whitespace-normalised text.
func htmlToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(whitespace.ReplaceAllString(fragment, " "))
	}

	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return stripTags(fragment)
	}

	var sb strings.Builder
	extractText(doc, &sb)
	return strings.TrimSpace(whitespace.ReplaceAllString(sb.String(), " "))
}

func extractText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "nav", "footer", "header", "aside", "noscript":
			return
		}
	}

	if n.Type == html.TextNode {
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, sb)
	}
}

func stripTags(s string) string {
	text := tags.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}

// truncateText cuts s to at most maxLen bytes without splitting a rune.
func truncateText(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	for maxLen > 0 && !utf8.RuneStart(s[maxLen]) {
		maxLen--
	}
	return s[:maxLen] + "..."
}
