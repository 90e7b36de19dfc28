package source

// InternID identifies an interned string (identifier or string-literal
// text) inside a compilation session (§4.1).
type InternID uint32

// Interner deduplicates identifier and string-literal text so the lexer and
// symbol table can compare names by integer equality.
type Interner struct {
	ids     map[string]InternID
	strings []string
}

func NewInterner() *Interner {
	return &Interner{ids: make(map[string]InternID, 256)}
}

// Intern returns the stable InternID for s, allocating a new one on first
// occurrence.
func (in *Interner) Intern(s string) InternID {
	if id, ok := in.ids[s]; ok {
		return id
	}
	id := InternID(len(in.strings))
	in.strings = append(in.strings, s)
	in.ids[s] = id
	return id
}

// Lookup returns the text for id, or "" if id is out of range.
func (in *Interner) Lookup(id InternID) string {
	if int(id) >= len(in.strings) {
		return ""
	}
	return in.strings[id]
}

func (in *Interner) Len() int { return len(in.strings) }
