package util

import (
	"regexp"
	"strings"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Product and category names are often French; fold the usual accents so
// "Crème Hydratante" becomes "creme-hydratante" rather than "cr-me-hydratante".
var accents = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a", "á", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i", "í", "i",
	"ô", "o", "ö", "o", "ó", "o",
	"ù", "u", "û", "u", "ü", "u", "ú", "u",
	"ñ", "n",
)

// Slugify lowercases s and joins its alphanumeric runs with dashes. It returns
// fallback when nothing usable is left.
func Slugify(s, fallback string) string {
	s = accents.Replace(strings.ToLower(strings.TrimSpace(s)))
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return fallback
	}
	return s
}
