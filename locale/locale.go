// Package locale picks the interface language for a request and keeps every
// page URL prefixed with it.
package locale

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

const (
	Arabic  = "ar"
	Kurdish = "ku"
	English = "en"

	Default = Arabic
)

// Locales lists the supported locales in preference order.
var Locales = []string{Arabic, Kurdish, English}

// aliases maps primary subtags onto a supported locale.
var aliases = map[string]string{
	"ckb": Kurdish,
	"kmr": Kurdish,
}

// Supported reports whether l is one of Locales.
func Supported(l string) bool {
	for _, loc := range Locales {
		if loc == l {
			return true
		}
	}
	return false
}

// Dir returns the text direction for l.
func Dir(l string) string {
	if l == English {
		return "ltr"
	}
	return "rtl"
}

type preference struct {
	locale  string
	quality float64
}

// Negotiate returns the highest-quality supported locale from an
// Accept-Language header, or Default when none matches.
func Negotiate(acceptLanguage string) string {
	var prefs []preference
	for _, item := range strings.Split(acceptLanguage, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		tag, q, _ := strings.Cut(item, ";q=")
		prefs = append(prefs, preference{locale: primary(tag), quality: quality(q)})
	}

	sort.SliceStable(prefs, func(i, j int) bool {
		return prefs[i].quality > prefs[j].quality
	})

	for _, p := range prefs {
		if Supported(p.locale) {
			return p.locale
		}
	}
	return Default
}

// primary reduces a language tag to its lowercase primary subtag.
func primary(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	base := tag
	if t, err := language.Parse(tag); err == nil {
		if b, _ := t.Base(); b.String() != "und" {
			base = b.String()
		}
	}
	base, _, _ = strings.Cut(base, "-")
	if alias, ok := aliases[base]; ok {
		return alias
	}
	return base
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// quality parses the longest numeric prefix of a q value, so "0.8x" is 0.8.
// Missing values and values with no numeric prefix count as 1.
func quality(q string) float64 {
	num := leadingNumber.FindString(strings.TrimSpace(q))
	if num == "" {
		return 1
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 1
	}
	return v
}

// FromPath returns the locale a path starts with, if any.
func FromPath(path string) (string, bool) {
	for _, loc := range Locales {
		if path == "/"+loc || strings.HasPrefix(path, "/"+loc+"/") {
			return loc, true
		}
	}
	return "", false
}

// Prefix returns path under the given locale. The root maps to "/{locale}".
func Prefix(l, path string) string {
	if path == "/" || path == "" {
		return "/" + l
	}
	return "/" + l + path
}
