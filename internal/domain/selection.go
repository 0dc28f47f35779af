package domain

// Selection is the set of product identifiers a shopper has chosen to try on
// together in one session. Order is kept for display only; pricing depends
// solely on Size. Duplicates collapse: a product appears at most once.
type Selection struct {
	ids []string
}

// NewSelection seeds a selection, dropping duplicate identifiers.
func NewSelection(ids ...string) *Selection {
	s := &Selection{}
	for _, id := range ids {
		s.add(id)
	}
	return s
}

// Toggle adds the identifier if absent, removes it if present. Returns true
// when the identifier is part of the selection after the call.
func (s *Selection) Toggle(id string) bool {
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return false
		}
	}
	s.ids = append(s.ids, id)
	return true
}

func (s *Selection) add(id string) {
	for _, existing := range s.ids {
		if existing == id {
			return
		}
	}
	s.ids = append(s.ids, id)
}

// Size is the count of distinct selected products.
func (s *Selection) Size() int {
	return len(s.ids)
}

// IDs returns the identifiers in insertion order.
func (s *Selection) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}
