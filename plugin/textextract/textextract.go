// Package textextract converts HTML posting descriptions into plain
// text suitable for hashing, embedding, and prompt assembly. Sources
// like RemoteOK ship descriptions as HTML fragments.
package textextract

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags are elements that imply a line break in the rendered text.
var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "section": true, "article": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// skippedTags are elements whose text content is never visible.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "iframe": true,
}

// ExtractText returns the visible text of an HTML fragment with
// entities decoded and whitespace normalized. Plain-text input passes
// through with only whitespace normalization.
func ExtractText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return normalizeWhitespace(fragment)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	var sb strings.Builder
	skipDepth := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// Includes io.EOF; a truncated fragment yields whatever
			// text was seen before the error.
			return normalizeWhitespace(sb.String())
		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(tokenizer.Text())
			}
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedTags[tag] {
				skipDepth++
			}
			if blockTags[tag] {
				sb.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if skippedTags[tag] && skipDepth > 0 {
				skipDepth--
			}
			if blockTags[tag] {
				sb.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if blockTags[string(name)] {
				sb.WriteByte('\n')
			}
		}
	}
}

// normalizeWhitespace collapses runs of spaces within lines and drops
// blank lines.
func normalizeWhitespace(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, strings.Join(fields, " "))
	}
	return strings.Join(lines, "\n")
}
