package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

// Fold lowercases s and strips diacritics, so "Açaí" and "acai" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Match reports whether every word of query occurs in the product name or description.
func Match(p models.Product, query string) bool {
	words := strings.Fields(Fold(query))
	if len(words) == 0 {
		return true
	}
	text := Fold(p.Name + " " + p.Description)
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}

// Filter keeps the products matching query, preserving order. A blank query keeps everything.
func Filter(products []models.Product, query string) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if Match(p, query) {
			out = append(out, p)
		}
	}
	return out
}
