package spaces

import (
	"fmt"
	"sort"
	"strings"
)

// Tuple is the cartesian product of its member spaces.
type Tuple struct {
	members []AnySpace
}

// NewTuple creates a tuple space over the given members.
func NewTuple(members ...AnySpace) (*Tuple, error) {
	if len(members) == 0 {
		return nil, ErrEmptySpace
	}
	for i, m := range members {
		if m == nil {
			return nil, fmt.Errorf("tuple member %d: %w", i, ErrNilSubspace)
		}
	}
	out := make([]AnySpace, len(members))
	copy(out, members)
	return &Tuple{members: out}, nil
}

// Len returns the number of members.
func (t *Tuple) Len() int { return len(t.members) }

// At returns member i.
func (t *Tuple) At(i int) AnySpace { return t.members[i] }

func (t *Tuple) Contains(x []any) bool {
	if len(x) != len(t.members) {
		return false
	}
	for i, m := range t.members {
		if !m.ContainsAny(x[i]) {
			return false
		}
	}
	return true
}

func (t *Tuple) Sample() []any {
	out := make([]any, len(t.members))
	for i, m := range t.members {
		out[i] = m.SampleAny()
	}
	return out
}

// Seed seeds member i with seed+i so members draw independent streams.
func (t *Tuple) Seed(seed int64) {
	for i, m := range t.members {
		m.Seed(seed + int64(i))
	}
}

func (t *Tuple) Shape() []int { return nil }

func (t *Tuple) String() string {
	parts := make([]string, len(t.members))
	for i, m := range t.members {
		parts[i] = m.String()
	}
	return "Tuple(" + strings.Join(parts, ", ") + ")"
}

// Dict is a keyed product of member spaces. Keys are iterated in sorted
// order so seeding and printing are deterministic.
type Dict struct {
	keys    []string
	members map[string]AnySpace
}

// NewDict creates a dict space from the member map.
func NewDict(members map[string]AnySpace) (*Dict, error) {
	if len(members) == 0 {
		return nil, ErrEmptySpace
	}
	d := &Dict{members: make(map[string]AnySpace, len(members))}
	for k, m := range members {
		if m == nil {
			return nil, fmt.Errorf("dict member %q: %w", k, ErrNilSubspace)
		}
		d.keys = append(d.keys, k)
		d.members[k] = m
	}
	sort.Strings(d.keys)
	return d, nil
}

// Keys returns the member keys in sorted order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get returns the member registered under key.
func (d *Dict) Get(key string) (AnySpace, bool) {
	m, ok := d.members[key]
	return m, ok
}

func (d *Dict) Contains(x map[string]any) bool {
	if len(x) != len(d.members) {
		return false
	}
	for k, m := range d.members {
		v, ok := x[k]
		if !ok || !m.ContainsAny(v) {
			return false
		}
	}
	return true
}

func (d *Dict) Sample() map[string]any {
	out := make(map[string]any, len(d.members))
	for _, k := range d.keys {
		out[k] = d.members[k].SampleAny()
	}
	return out
}

func (d *Dict) Seed(seed int64) {
	for i, k := range d.keys {
		d.members[k].Seed(seed + int64(i))
	}
}

func (d *Dict) Shape() []int { return nil }

func (d *Dict) String() string {
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		parts[i] = fmt.Sprintf("%s: %s", k, d.members[k].String())
	}
	return "Dict(" + strings.Join(parts, ", ") + ")"
}
