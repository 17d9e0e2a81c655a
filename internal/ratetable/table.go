// Package ratetable loads and holds the reaction rate table: an ordered,
// read-only mapping from reaction name to a numeric constant or a rate
// expression.
package ratetable

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrDuplicateReaction = errors.New("ratetable: duplicate reaction")
	ErrMissingColumn     = errors.New("ratetable: missing column")
	ErrEmptyTable        = errors.New("ratetable: no usable rows")
)

type Kind int

const (
	Numeric Kind = iota
	Expression
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "expression"
}

var numericLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Entry is a single reaction row. Raw is the trimmed rate cell.
type Entry struct {
	Name string
	Raw  string
	Kind Kind
}

// NewEntry normalizes name and raw and classifies the rate.
func NewEntry(name, raw string) Entry {
	raw = strings.TrimSpace(raw)
	kind := Expression
	if numericLiteral.MatchString(raw) {
		kind = Numeric
	}
	return Entry{Name: Normalize(name), Raw: raw, Kind: kind}
}

// Normalize is the key used for every lookup.
func Normalize(name string) string {
	return strings.TrimSpace(name)
}

// Table is immutable after construction and safe for concurrent readers.
type Table struct {
	entries []Entry
	index   map[string]int
}

// New builds a table, rejecting duplicate normalized names and rows with an
// empty name or rate.
func New(entries []Entry) (*Table, error) {
	t := &Table{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e = NewEntry(e.Name, e.Raw)
		if e.Name == "" || e.Raw == "" {
			continue
		}
		if _, ok := t.index[e.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateReaction, e.Name)
		}
		t.index[e.Name] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

// Lookup finds the entry for name after normalization.
func (t *Table) Lookup(name string) (Entry, bool) {
	i, ok := t.index[Normalize(name)]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

func (t *Table) Len() int { return len(t.entries) }

// Entries returns a copy in load order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Names returns reaction names in load order.
func (t *Table) Names() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Name
	}
	return out
}
