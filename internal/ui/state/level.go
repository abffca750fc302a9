// Package state holds per-screen list state: the candidate items, the
// filter buffer, cursor, viewport, and multi-select marks.
package state

// Item is a selectable list entry. ID is the stable identifier (module
// path, target label, or rule kind); Label is the rendered form.
type Item struct {
	ID         string
	Label      string
	Annotation string
}

// Level is one screen on the navigation stack.
type Level struct {
	ID             string
	Title          string
	Items          []Item
	Full           []Item
	Filter         string
	FilterCursor   int
	Cursor         int
	MultiSelect    bool
	Selected       map[string]struct{}
	LastCursor     int
	ViewportOffset int
}

// NewLevel constructs a level over the provided items with an empty
// filter and the cursor at the top.
func NewLevel(id, title string, items []Item) *Level {
	l := &Level{
		ID:         id,
		Title:      title,
		LastCursor: -1,
		Selected:   make(map[string]struct{}),
	}
	l.UpdateItems(items)
	return l
}

// IndexOf returns the index of the item with the given id, or -1.
func (l *Level) IndexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, item := range l.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// UpdateItems replaces the full item set, re-applies the current filter,
// and clamps the viewport.
func (l *Level) UpdateItems(items []Item) {
	prevOffset := l.ViewportOffset
	l.Full = CloneItems(items)
	l.CleanupSelections()
	l.applyFilter()
	if len(l.Items) == 0 {
		l.ViewportOffset = 0
		return
	}
	if prevOffset < 0 || prevOffset > len(l.Items)-1 {
		l.ViewportOffset = 0
		return
	}
	l.ViewportOffset = prevOffset
}

// CloneItems produces a shallow copy of the provided items.
func CloneItems(items []Item) []Item {
	dup := make([]Item, len(items))
	copy(dup, items)
	return dup
}
