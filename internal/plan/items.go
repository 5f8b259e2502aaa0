package plan

// Items is an ordered collection of items with stable indices.
// Lookups by name are supported but updates always go through an index.
//
// SetStatus and SetSize may be called concurrently for distinct indices.
// Adding items is not safe for concurrent use.
type Items struct {
	list  []Item
	index map[string]int
}

// NewItems returns an empty collection.
func NewItems() *Items {
	return &Items{index: make(map[string]int)}
}

// Add appends item, or replaces the existing item with the same name in
// place. It reports whether an earlier item was replaced. The status of
// the stored item is reset to StatusNotStarted.
func (s *Items) Add(item Item) (replaced bool) {
	item.Status = StatusNotStarted
	item.Size = 0
	if i, ok := s.index[item.Name]; ok {
		s.list[i] = item
		return true
	}
	s.index[item.Name] = len(s.list)
	s.list = append(s.list, item)
	return false
}

// Len returns the number of items.
func (s *Items) Len() int {
	if s == nil {
		return 0
	}
	return len(s.list)
}

// At returns a copy of the item at index i.
func (s *Items) At(i int) Item {
	return s.list[i]
}

// Index returns the position of the named item.
func (s *Items) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// SetStatus records the terminal status of the item at index i.
func (s *Items) SetStatus(i int, status Status) {
	s.list[i].Status = status
}

// SetSize records the mirrored size of the item at index i.
func (s *Items) SetSize(i int, size int64) {
	s.list[i].Size = size
}

// All returns a copy of the items in declaration order.
func (s *Items) All() []Item {
	if s == nil {
		return nil
	}
	out := make([]Item, len(s.list))
	copy(out, s.list)
	return out
}

// MarshalJSON renders the collection as a list.
func (s *Items) MarshalJSON() ([]byte, error) {
	return marshalJSON(s.All())
}

// MarshalYAML renders the collection as a list.
func (s *Items) MarshalYAML() (any, error) {
	return s.All(), nil
}
