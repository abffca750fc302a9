package state

// CleanupSelections drops selections no longer present in the item list.
func (l *Level) CleanupSelections() {
	if len(l.Selected) == 0 {
		return
	}
	valid := make(map[string]struct{}, len(l.Full))
	for _, item := range l.Full {
		valid[item.ID] = struct{}{}
	}
	for id := range l.Selected {
		if _, ok := valid[id]; !ok {
			delete(l.Selected, id)
		}
	}
}

// IsSelected reports whether the given id is selected.
func (l *Level) IsSelected(id string) bool {
	if l.Selected == nil {
		return false
	}
	_, ok := l.Selected[id]
	return ok
}

// ToggleSelection toggles selection membership for the supplied id.
func (l *Level) ToggleSelection(id string) {
	if l.Selected == nil {
		l.Selected = make(map[string]struct{})
	}
	if _, ok := l.Selected[id]; ok {
		delete(l.Selected, id)
	} else {
		l.Selected[id] = struct{}{}
	}
}

// ToggleCurrentSelection toggles the selection state at the cursor.
func (l *Level) ToggleCurrentSelection() {
	if !l.MultiSelect || len(l.Items) == 0 || l.Cursor < 0 || l.Cursor >= len(l.Items) {
		return
	}
	l.ToggleSelection(l.Items[l.Cursor].ID)
}

// SelectedIDs returns the selected ids in display order.
func (l *Level) SelectedIDs() []string {
	if len(l.Selected) == 0 {
		return nil
	}
	ids := make([]string, 0, len(l.Selected))
	for _, item := range l.Full {
		if l.IsSelected(item.ID) {
			ids = append(ids, item.ID)
		}
	}
	return ids
}
