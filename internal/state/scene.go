package state

// Scene is the canonical document: elements in draw order plus free text
// items. Elements are kept in a map keyed by id alongside an insertion-order
// list so upserts stay O(1) and draw order stays stable.
type Scene struct {
	elements map[string]Element
	order    []string
	texts    []TextItem
}

func NewScene() *Scene {
	return &Scene{elements: make(map[string]Element)}
}

// SceneOf builds a scene from wire-order slices. Duplicate ids keep the last
// value at the position of the first occurrence.
func SceneOf(elements []Element, texts []TextItem) *Scene {
	s := NewScene()
	for _, e := range elements {
		s.Upsert(e)
	}
	for _, t := range texts {
		s.UpsertText(t)
	}
	return s
}

func (s *Scene) Len() int { return len(s.order) }

func (s *Scene) Get(id string) (Element, bool) {
	e, ok := s.elements[id]
	return e, ok
}

func (s *Scene) Has(id string) bool {
	_, ok := s.elements[id]
	return ok
}

// Upsert replaces the element in place when its id exists, else appends it.
func (s *Scene) Upsert(e Element) {
	if _, ok := s.elements[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.elements[e.ID] = e.Clone()
}

// Update applies fn to the element with the given id. It reports whether
// the element existed.
func (s *Scene) Update(id string, fn func(*Element)) bool {
	e, ok := s.elements[id]
	if !ok {
		return false
	}
	fn(&e)
	s.elements[id] = e
	return true
}

// Remove deletes the given ids from both elements and texts and returns how
// many entries were removed.
func (s *Scene) Remove(ids ...string) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	removed := 0
	order := s.order[:0]
	for _, id := range s.order {
		if _, ok := drop[id]; ok {
			delete(s.elements, id)
			removed++
			continue
		}
		order = append(order, id)
	}
	s.order = order

	texts := s.texts[:0]
	for _, t := range s.texts {
		if _, ok := drop[t.ID]; ok {
			removed++
			continue
		}
		texts = append(texts, t)
	}
	s.texts = texts
	return removed
}

// Elements returns copies of the elements in draw order.
func (s *Scene) Elements() []Element {
	out := make([]Element, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.elements[id].Clone())
	}
	return out
}

// Each visits elements in draw order without copying.
func (s *Scene) Each(fn func(Element)) {
	for _, id := range s.order {
		fn(s.elements[id])
	}
}

// Reverse visits elements topmost first until fn returns false.
func (s *Scene) Reverse(fn func(Element) bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		if !fn(s.elements[s.order[i]]) {
			return
		}
	}
}

func (s *Scene) Texts() []TextItem {
	return append([]TextItem(nil), s.texts...)
}

func (s *Scene) Text(id string) (TextItem, bool) {
	for _, t := range s.texts {
		if t.ID == id {
			return t, true
		}
	}
	return TextItem{}, false
}

func (s *Scene) UpsertText(t TextItem) {
	for i := range s.texts {
		if s.texts[i].ID == t.ID {
			s.texts[i] = t
			return
		}
	}
	s.texts = append(s.texts, t)
}

func (s *Scene) UpdateText(id string, fn func(*TextItem)) bool {
	for i := range s.texts {
		if s.texts[i].ID == id {
			fn(&s.texts[i])
			return true
		}
	}
	return false
}

// Clone returns an independent deep copy.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		elements: make(map[string]Element, len(s.elements)),
		order:    append([]string(nil), s.order...),
		texts:    append([]TextItem(nil), s.texts...),
	}
	for id, e := range s.elements {
		c.elements[id] = e.Clone()
	}
	return c
}

// Snapshot is the wire and export form of a scene.
type Snapshot struct {
	Elements []Element  `json:"elements"`
	Texts    []TextItem `json:"texts"`
}

func (s *Scene) Snapshot() Snapshot {
	texts := s.Texts()
	if texts == nil {
		texts = []TextItem{}
	}
	return Snapshot{Elements: s.Elements(), Texts: texts}
}

func (snap Snapshot) Scene() *Scene {
	return SceneOf(snap.Elements, snap.Texts)
}

// Replace makes s an independent copy of o.
func (s *Scene) Replace(o *Scene) {
	*s = *o.Clone()
}
