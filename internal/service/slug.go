// Package service contains the catalog business logic that sits between the
// handlers and the list view controllers.
//
// This file implements slug derivation.
package service

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// maxSlugLength keeps derived slugs within the backend's column limits.
const maxSlugLength = 100

// Slugify turns a display name into a URL slug: transliterated to ASCII,
// lower case, words joined by single hyphens.
//
//	Slugify("Crème Brûlée  Tools") == "creme-brulee-tools"
func Slugify(s string) string {
	ascii := unidecode.Unidecode(s)

	var b strings.Builder
	b.Grow(len(ascii))
	pendingHyphen := false
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		default:
			pendingHyphen = true
		}
	}

	slug := b.String()
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	return slug
}

// fillSlug derives *slug from name when it was left blank, and normalizes it
// otherwise.
func fillSlug(slug *string, name string) {
	if strings.TrimSpace(*slug) == "" {
		*slug = Slugify(name)
		return
	}
	*slug = Slugify(*slug)
}
