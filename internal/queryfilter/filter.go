// Package queryfilter implements the Query Filter Parser: a hand-written
// tokenizer for the "key:value"/"-key:value" search DSL, kept
// deliberately simple rather than built on a parser-combinator library.
package queryfilter

import (
	"strings"
)

// ParsedQuery is the result of parsing a raw query string.
type ParsedQuery struct {
	Terms   string
	Filters Filters
}

// Filters holds the positive and negated filter values extracted from a
// query, grouped by key. Multiple values under the same key are OR'd;
// different keys are AND'd; Exclude* values apply AND NOT.
type Filters struct {
	Languages        []string
	Kinds            []string
	Paths            []string
	ExcludeLanguages []string
	ExcludeKinds     []string
	ExcludePaths     []string
}

const (
	keyLang = "lang"
	keyKind = "kind"
	keyFile = "file"
)

// String renders the parsed query back into the DSL in canonical form:
// filters first in fixed key order (lang, kind, file, then their negated
// counterparts), followed by the bare terms. Parsing the output yields a
// ParsedQuery equal to re-parsing it again, so the rendering is a fixed
// point of Parse.
func (q ParsedQuery) String() string {
	var parts []string
	appendKey := func(prefix, key string, values []string) {
		for _, v := range values {
			if strings.ContainsAny(v, " \t\n\r") {
				v = `"` + v + `"`
			}
			parts = append(parts, prefix+key+":"+v)
		}
	}
	appendKey("", keyLang, q.Filters.Languages)
	appendKey("", keyKind, q.Filters.Kinds)
	appendKey("", keyFile, q.Filters.Paths)
	appendKey("-", keyLang, q.Filters.ExcludeLanguages)
	appendKey("-", keyKind, q.Filters.ExcludeKinds)
	appendKey("-", keyFile, q.Filters.ExcludePaths)
	if q.Terms != "" {
		parts = append(parts, q.Terms)
	}
	return strings.Join(parts, " ")
}

// Parse tokenizes query on ASCII whitespace, with quoted spans ("...")
// preserving interior whitespace as a single token. Each token is then
// classified as a negated filter ("-key:value"), a filter ("key:value"),
// or a bare term. Unknown keys degrade to bare terms, forward-compatibly.
func Parse(query string) ParsedQuery {
	var terms []string
	var filters Filters

	for _, tok := range tokenize(query) {
		negated := strings.HasPrefix(tok, "-")
		body := tok
		if negated {
			body = strings.TrimPrefix(tok, "-")
		}

		key, value, isFilter := splitFilter(body)
		if !isFilter {
			terms = append(terms, tok)
			continue
		}

		value = unquote(value)
		if value == "" {
			terms = append(terms, tok)
			continue
		}

		switch key {
		case keyLang:
			if negated {
				filters.ExcludeLanguages = append(filters.ExcludeLanguages, value)
			} else {
				filters.Languages = append(filters.Languages, value)
			}
		case keyKind:
			if negated {
				filters.ExcludeKinds = append(filters.ExcludeKinds, value)
			} else {
				filters.Kinds = append(filters.Kinds, value)
			}
		case keyFile:
			if negated {
				filters.ExcludePaths = append(filters.ExcludePaths, value)
			} else {
				filters.Paths = append(filters.Paths, value)
			}
		default:
			// Unknown key: treat the whole token as a bare term.
			terms = append(terms, tok)
		}
	}

	return ParsedQuery{
		Terms:   strings.Join(terms, " "),
		Filters: filters,
	}
}

// splitFilter reports whether body is "key:value" with a recognized key,
// returning the key and raw (still possibly quoted) value.
func splitFilter(body string) (key, value string, ok bool) {
	idx := strings.Index(body, ":")
	if idx <= 0 || idx == len(body)-1 {
		return "", "", false
	}
	k := body[:idx]
	v := body[idx+1:]
	switch k {
	case keyLang, keyKind, keyFile:
		return k, v, true
	default:
		return "", "", false
	}
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	return v
}

// tokenize splits on ASCII whitespace, treating a double-quoted span
// (including its key:"..." prefix, if any) as one token that preserves
// interior whitespace.
func tokenize(query string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range query {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			cur.WriteRune(r)
		case isASCIISpace(r) && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isASCIISpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
