// Package service contains the catalog business logic that sits between the
// handlers and the list view controllers.
//
// This file implements blog content sanitizing.
package service

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// excerptLength is the rune length of a derived excerpt.
const excerptLength = 160

var (
	// contentPolicy allows the markup a rich-text editor produces.
	contentPolicy = bluemonday.UGCPolicy()

	// textPolicy strips every tag.
	textPolicy = bluemonday.StrictPolicy()
)

// SanitizeHTML removes scripts, event handlers and other unsafe markup from
// blog content.
func SanitizeHTML(content string) string {
	return contentPolicy.Sanitize(content)
}

// PlainText returns the text of an HTML fragment with whitespace collapsed.
func PlainText(content string) string {
	text := html.UnescapeString(textPolicy.Sanitize(content))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt derives a short summary from blog content.
func Excerpt(content string) string {
	text := PlainText(content)
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}

	runes := []rune(text)[:excerptLength]
	cut := string(runes)
	// Prefer breaking on a word boundary
	if i := strings.LastIndexByte(cut, ' '); i > excerptLength/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
