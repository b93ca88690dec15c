// Package macro implements the macro entry and macro table: an ordered
// collection of macro definitions supporting append, positional insert,
// removal, lookup-by-name, and the mutual-self-reference detection the
// expander uses as a fast cycle short-circuit.
package macro

// Entry is a single macro definition.
//
// Params holds the named (non-variadic) formal parameters in declaration
// order; it is empty for an object-like macro. IsVariadic marks a trailing
// `...` parameter whose actual arguments are joined into __VA_ARGS__.
// IsCyclic is a fast short-circuit set when this entry and another form a
// direct A->B, B->A mutual reference.
type Entry struct {
	Name       string
	Value      string
	Params     []string
	IsVariadic bool
	IsCyclic   bool
}

// IsFunctionLike reports whether the macro takes a parameter list (including
// a bare variadic one).
func (e *Entry) IsFunctionLike() bool {
	return len(e.Params) > 0 || e.IsVariadic
}

// Table is the ordered collection of macro entries. Names are not required
// to be unique: redefining a name appends a new entry, and Lookup returns
// the last (most recent) match.
type Table struct {
	entries []*Entry
}

// NewTable creates an empty macro table.
func NewTable() *Table {
	return &Table{}
}

// Add scans the existing entries for a direct mutual reference, then
// appends entry to the table: any existing entry E whose Name equals
// entry.Value and whose Value equals entry.Name is a trivial A<->B cycle,
// and both entries' IsCyclic flags are set. The new entry is not compared
// with itself.
func (t *Table) Add(entry *Entry) {
	for _, other := range t.entries {
		if other.Name == entry.Value && other.Value == entry.Name {
			other.IsCyclic = true
			entry.IsCyclic = true
		}
	}
	t.entries = append(t.entries, entry)
}

// AddSimple is a convenience wrapper for defining an object-like macro from
// a bare name/value pair.
func (t *Table) AddSimple(name, value string) {
	t.Add(&Entry{Name: name, Value: value})
}

// AddAll appends every entry in entries, in order, applying the same
// mutual-reference detection as Add to each.
func (t *Table) AddAll(entries []*Entry) {
	for _, e := range entries {
		t.Add(e)
	}
}

// InsertAt inserts entry at position i, shifting subsequent entries back.
// If i is out of range, the entry is appended.
func (t *Table) InsertAt(i int, entry *Entry) {
	if i < 0 || i >= len(t.entries) {
		t.Add(entry)
		return
	}
	t.entries = append(t.entries, nil)
	copy(t.entries[i+1:], t.entries[i:])
	t.entries[i] = entry
	t.recomputeCyclicFlags()
}

// Remove deletes the entry at index i. It is a no-op if i is out of range.
// Removal recomputes IsCyclic flags globally, since removing one half of a
// mutual pair invalidates the other's flag.
func (t *Table) Remove(i int) {
	if i < 0 || i >= len(t.entries) {
		return
	}
	t.entries = append(t.entries[:i], t.entries[i+1:]...)
	t.recomputeCyclicFlags()
}

// RemoveByName removes the last entry whose name matches, mirroring #undef
// semantics (the most recent definition is the active one).
func (t *Table) RemoveByName(name string) bool {
	idx := t.Lookup(name)
	if idx < 0 {
		return false
	}
	t.Remove(idx)
	return true
}

func (t *Table) recomputeCyclicFlags() {
	for _, e := range t.entries {
		e.IsCyclic = false
	}
	for i, e := range t.entries {
		for j, other := range t.entries {
			if i == j {
				continue
			}
			if other.Name == e.Value && other.Value == e.Name {
				e.IsCyclic = true
				other.IsCyclic = true
			}
		}
	}
}

// Clear removes every entry.
func (t *Table) Clear() {
	t.entries = nil
}

// Size returns the number of entries currently in the table.
func (t *Table) Size() int {
	return len(t.entries)
}

// Get returns the entry at index i, or nil if out of range.
func (t *Table) Get(i int) *Entry {
	if i < 0 || i >= len(t.entries) {
		return nil
	}
	return t.entries[i]
}

// Lookup returns the index of the last entry named name, or -1 if none
// exists. Comparison is case-sensitive.
func (t *Table) Lookup(name string) int {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Name == name {
			return i
		}
	}
	return -1
}

// Find is a convenience wrapper returning the entry itself.
func (t *Table) Find(name string) (*Entry, bool) {
	idx := t.Lookup(name)
	if idx < 0 {
		return nil, false
	}
	return t.entries[idx], true
}
