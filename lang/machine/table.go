package machine

// entry is one slot of a Table. A nil Key with a non-nil Value (specifically
// True) marks a tombstone: a deleted entry that still blocks probe chains
// from being short-circuited.
type entry struct {
	key   *ObjString
	value Value
}

// Table is the open-addressed, linear-probed hash table that underlies
// string interning (vm.strings), globals (vm.globals), per-class method
// tables and per-instance field tables. Capacity is always a power of two;
// load factor is kept at or below 0.75 by doubling on insert. Keys are
// canonical *ObjString pointers compared by identity, which is sound only
// because strings are interned.
type Table struct {
	count    int // live entries + tombstones
	entries  []entry
}

const tableMaxLoad = 0.75

// NewTable returns an empty table with no initial allocation (capacity 0
// until the first insert triggers growth to 8).
func NewTable() *Table { return &Table{} }

// Get returns the value stored for key, if any.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return Value{}, false
	}
	return e.value, true
}

// Set stores value for key, growing the table first if needed. It reports
// true if key was not already present (whether it landed in an empty slot
// or reused a tombstone), and false if it overwrote an existing entry.
func (t *Table) Set(key *ObjString, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}

	e := t.findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey && e.value.IsNil() {
		// only a genuinely empty slot increases count; reusing a
		// tombstone does not, since the tombstone was already counted.
		t.count++
	}
	e.key = key
	e.value = value
	return isNewKey
}

// Delete removes key from the table, leaving a tombstone in its place so
// later probes that passed through this slot keep working. It reports
// whether the key was present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = True // tombstone sentinel, distinct from "empty" (nil key + nil value)
	return true
}

// AddAll copies every entry of src into dst (used by OP_INHERIT to copy a
// superclass's methods table into a subclass's).
func AddAll(src, dst *Table) {
	for _, e := range src.entries {
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString looks up a string by its raw bytes and hash, doing a bytewise
// comparison rather than a pointer comparison — this is the only place a
// string is ever compared by content instead of identity, since it is how
// the intern table decides whether a byte sequence already has a canonical
// object.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	index := hash & mask
	for {
		e := &t.entries[index]
		switch {
		case e.key == nil:
			if e.value.IsNil() {
				// genuinely empty slot: the string is not interned
				return nil
			}
			// tombstone: keep probing
		case e.key.Hash == hash && e.key.Chars == chars:
			return e.key
		}
		index = (index + 1) & mask
	}
}

func (t *Table) findEntry(entries []entry, key *ObjString) *entry {
	mask := uint32(len(entries) - 1)
	index := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[index]
		switch {
		case e.key == nil:
			if e.value.IsNil() {
				// empty slot
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		index = (index + 1) & mask
	}
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}

// grow rehashes every live entry into a freshly sized table, which is also
// where tombstones are compacted away (they are simply not copied).
func (t *Table) grow(newCap int) {
	newEntries := make([]entry, newCap)
	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
	t.entries = newEntries
}

// removeUnmarked deletes every entry whose key was not marked by the last
// GC trace. The intern table holds only weak references to its strings, so
// the sweep phase scans it before sweeping objects.
func (t *Table) removeUnmarked() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			e.key = nil
			e.value = True
		}
	}
}

// each calls fn for every live (non-tombstone) entry.
func (t *Table) each(fn func(key *ObjString, value Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}
