// Package naming converts identifiers between the casings used in specs and
// generated sources.
package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	lowerCamelRe = regexp.MustCompile(`^[a-z][a-zA-Z0-9]*$`)
	pascalRe     = regexp.MustCompile(`^[A-Z][a-zA-Z0-9]*$`)
)

// IsLowerCamel reports whether s is lowerCamelCase (e.g. "blogPost").
func IsLowerCamel(s string) bool {
	return lowerCamelRe.MatchString(s)
}

// IsPascal reports whether s is UpperCamelCase (e.g. "BlogPost").
func IsPascal(s string) bool {
	return pascalRe.MatchString(s)
}

// Words splits an identifier on case changes, digits boundaries and the
// separators '-', '_', '.' and space. "HTTPServerID" yields HTTP, Server, ID.
func Words(s string) []string {
	var words []string
	var cur []rune
	runes := []rune(s)

	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == '.' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// Capitalize upper-cases the first rune.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Uncapitalize lower-cases the first rune.
func Uncapitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Pascal converts s to UpperCamelCase.
func Pascal(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(Capitalize(strings.ToLower(w)))
	}
	return b.String()
}

// LowerCamel converts s to lowerCamelCase.
func LowerCamel(s string) string {
	return Uncapitalize(Pascal(s))
}

// Kebab converts s to kebab-case.
func Kebab(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// Label converts s to a human title, "blogPost" becoming "Blog Post".
// Casers carry state, so each call builds its own.
func Label(s string) string {
	return cases.Title(language.English).String(strings.Join(Words(s), " "))
}

// Plural pluralises the last word of an identifier, keeping its casing:
// "Category" becomes "Categories", "blogPost" becomes "blogPosts".
func Plural(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	switch {
	case EndsInConsonantY(s):
		return s[:len(s)-1] + "ies"
	case strings.HasSuffix(lower, "s"), strings.HasSuffix(lower, "x"), strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"), strings.HasSuffix(lower, "sh"):
		return s + "es"
	default:
		return s + "s"
	}
}

// EndsInConsonantY reports names like "Category" whose plural is not a plain "s".
func EndsInConsonantY(s string) bool {
	if len(s) < 2 || s[len(s)-1] != 'y' {
		return false
	}
	return !strings.ContainsRune("aeiouAEIOU", rune(s[len(s)-2]))
}
