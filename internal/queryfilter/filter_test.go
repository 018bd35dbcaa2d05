package queryfilter

import "testing"

func assertStringSlice(t *testing.T, got, want []string, label string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", label, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s: got %v, want %v", label, got, want)
		}
	}
}

func TestParseBareTerms(t *testing.T) {
	pq := Parse("hello world")
	if pq.Terms != "hello world" {
		t.Errorf("got terms %q", pq.Terms)
	}
}

func TestParseSingleFilter(t *testing.T) {
	pq := Parse("lang:go parseFile")
	assertStringSlice(t, pq.Filters.Languages, []string{"go"}, "Languages")
	if pq.Terms != "parseFile" {
		t.Errorf("got terms %q", pq.Terms)
	}
}

func TestParseMultipleFiltersSameKeyOR(t *testing.T) {
	pq := Parse("lang:go lang:python widget")
	assertStringSlice(t, pq.Filters.Languages, []string{"go", "python"}, "Languages")
}

func TestParseNegatedFilter(t *testing.T) {
	pq := Parse("-lang:python widget")
	assertStringSlice(t, pq.Filters.ExcludeLanguages, []string{"python"}, "ExcludeLanguages")
	if len(pq.Filters.Languages) != 0 {
		t.Errorf("negated filter should not also populate positive Languages: %v", pq.Filters.Languages)
	}
}

func TestParseQuotedSpanPreservesWhitespace(t *testing.T) {
	pq := Parse(`file:"internal/query router.go" lookup`)
	assertStringSlice(t, pq.Filters.Paths, []string{"internal/query router.go"}, "Paths")
	if pq.Terms != "lookup" {
		t.Errorf("got terms %q", pq.Terms)
	}
}

func TestParseUnknownKeyDegradesToTerm(t *testing.T) {
	pq := Parse("scope:internal widget")
	if pq.Terms != "scope:internal widget" {
		t.Errorf("unknown key should degrade to a bare term, got terms %q", pq.Terms)
	}
	assertStringSlice(t, pq.Filters.Languages, nil, "Languages")
}

func TestParseKindFilter(t *testing.T) {
	pq := Parse("kind:function kind:method Search")
	assertStringSlice(t, pq.Filters.Kinds, []string{"function", "method"}, "Kinds")
	if pq.Terms != "Search" {
		t.Errorf("got terms %q", pq.Terms)
	}
}

func TestParseEmptyValueDegradesToTerm(t *testing.T) {
	pq := Parse("lang: widget")
	if pq.Terms != "lang: widget" {
		t.Errorf("empty filter value should degrade to bare term, got %q", pq.Terms)
	}
}

func TestParseMixedFiltersAndNegation(t *testing.T) {
	pq := Parse("lang:go -kind:variable file:internal/** Router")
	assertStringSlice(t, pq.Filters.Languages, []string{"go"}, "Languages")
	assertStringSlice(t, pq.Filters.ExcludeKinds, []string{"variable"}, "ExcludeKinds")
	assertStringSlice(t, pq.Filters.Paths, []string{"internal/**"}, "Paths")
	if pq.Terms != "Router" {
		t.Errorf("got terms %q", pq.Terms)
	}
}

func TestStringCanonicalizesFilterOrder(t *testing.T) {
	pq := Parse("handler -file:*.test.ts lang:ts kind:function")
	got := pq.String()
	want := `lang:ts kind:function -file:*.test.ts handler`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestStringIsAFixedPointOfParse(t *testing.T) {
	for _, raw := range []string{
		"lang:go -kind:variable file:internal/** Router",
		`lang:"a b" terms here`,
		"-file:*.min.js handler kind:function",
		"bare terms only",
		"lang:ts",
	} {
		first := Parse(raw).String()
		second := Parse(first).String()
		if first != second {
			t.Errorf("%q: first rendering %q, re-parsed rendering %q", raw, first, second)
		}
	}
}
