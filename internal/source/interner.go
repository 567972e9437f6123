package source

// StringID identifies an interned string.
type StringID uint32

// NoStringID is the ID of the empty string.
const NoStringID StringID = 0

// Interner deduplicates identifier spellings so that name comparisons
// across the front-end are pointer-cheap and token construction does
// not re-allocate hot names.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern returns the ID for s, inserting it on first sight.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	// Own copy so we never pin a caller's backing buffer.
	cpy := string([]byte(s))
	id := StringID(len(i.byID)) // #nosec G115 -- interner size fits uint32
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// InternBytes interns the string spelled by b.
func (i *Interner) InternBytes(b []byte) StringID {
	if id, ok := i.index[string(b)]; ok {
		return id
	}
	return i.Intern(string(b))
}

// Lookup returns the string for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup returns the string for id and panics on an invalid ID.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("source: invalid string ID")
	}
	return s
}

// Len returns the number of interned strings, counting NoStringID.
func (i *Interner) Len() int {
	return len(i.byID)
}
