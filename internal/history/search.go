package history

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Matcher returns a case-insensitive substring predicate for query. An empty
// query matches everything.
func Matcher(query string) func(Entry) bool {
	q := strings.ToLower(query)
	if q == "" {
		return func(Entry) bool { return true }
	}
	return func(e Entry) bool {
		return strings.Contains(strings.ToLower(e.Text), q)
	}
}

// Match is a filtered entry together with its index in the unfiltered list.
// Front-ends select by Index.
type Match struct {
	Index int
	Entry Entry
}

// Filter returns the entries accepted by Matcher(query), in order.
func Filter(entries []Entry, query string) []Match {
	match := Matcher(query)
	var out []Match
	for i, e := range entries {
		if match(e) {
			out = append(out, Match{Index: i, Entry: e})
		}
	}
	return out
}

type entrySource []Entry

func (s entrySource) String(i int) string { return s[i].Text }
func (s entrySource) Len() int            { return len(s) }

// Fuzzy ranks entries against query with fuzzy matching, best first.
// An empty query returns every entry in history order.
func Fuzzy(entries []Entry, query string) []Match {
	if query == "" {
		return Filter(entries, "")
	}
	found := fuzzy.FindFrom(query, entrySource(entries))
	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{Index: m.Index, Entry: entries[m.Index]}
	}
	return out
}
