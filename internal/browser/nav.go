package browser

// NavState tracks the cursor and viewport over either the browse-mode
// ordering or the filter-mode result set.
type NavState struct {
	SelectedIndex int
	ScrollOffset  int
	TotalCount    int
	ViewportRows  int
	InFilterMode  bool
}

// clampSelected keeps SelectedIndex inside [0, TotalCount-1] (or 0 when
// TotalCount is 0).
func (n *NavState) clampSelected() {
	if n.TotalCount <= 0 {
		n.SelectedIndex = 0
		return
	}
	if n.SelectedIndex < 0 {
		n.SelectedIndex = 0
	}
	if n.SelectedIndex >= n.TotalCount {
		n.SelectedIndex = n.TotalCount - 1
	}
}

// clampScroll keeps the selected row within the viewport: scrolling back
// if the selection moved above the visible window, and forward if it moved
// below it.
func (n *NavState) clampScroll() {
	maxScroll := n.TotalCount - n.ViewportRows
	if maxScroll < 0 {
		maxScroll = 0
	}
	if n.ScrollOffset > maxScroll {
		n.ScrollOffset = maxScroll
	}
	if n.SelectedIndex < n.ScrollOffset {
		n.ScrollOffset = n.SelectedIndex
	}
	if n.ViewportRows > 0 && n.SelectedIndex >= n.ScrollOffset+n.ViewportRows {
		n.ScrollOffset = n.SelectedIndex - n.ViewportRows + 1
	}
	if n.ScrollOffset < 0 {
		n.ScrollOffset = 0
	}
}

func (n *NavState) apply() {
	n.clampSelected()
	n.clampScroll()
}

// MoveUp moves the selection one row up, clamped at the top. A no-op at
// index 0.
func (n *NavState) MoveUp() {
	n.SelectedIndex--
	n.apply()
}

// MoveDown moves the selection one row down, clamped at the bottom.
func (n *NavState) MoveDown() {
	n.SelectedIndex++
	n.apply()
}

// PageUp moves both the selection and the viewport up by a full page, so
// the window of visible rows advances with the cursor instead of merely
// clamping the cursor back into an unmoved viewport.
func (n *NavState) PageUp() {
	delta := max(n.ViewportRows, 1)
	n.SelectedIndex -= delta
	n.ScrollOffset -= delta
	n.apply()
}

// PageDown moves both the selection and the viewport down by a full page.
func (n *NavState) PageDown() {
	delta := max(n.ViewportRows, 1)
	n.SelectedIndex += delta
	n.ScrollOffset += delta
	n.apply()
}

// Home moves the selection to the first row.
func (n *NavState) Home() {
	n.SelectedIndex = 0
	n.apply()
}

// End moves the selection to the last row.
func (n *NavState) End() {
	n.SelectedIndex = n.TotalCount - 1
	n.apply()
}

// SetTotalCount updates TotalCount (e.g. after a refetch) and re-clamps the
// selection and scroll position against the new bound.
func (n *NavState) SetTotalCount(total int) {
	n.TotalCount = total
	n.apply()
}

// EnterFilterMode switches into filter mode and resets scroll.
func (n *NavState) EnterFilterMode() {
	n.InFilterMode = true
	n.SelectedIndex = 0
	n.ScrollOffset = 0
}

// ExitFilterMode leaves filter mode and resets scroll.
func (n *NavState) ExitFilterMode() {
	n.InFilterMode = false
	n.SelectedIndex = 0
	n.ScrollOffset = 0
}

// ClearFilter resets scroll after the filter buffer is emptied.
func (n *NavState) ClearFilter() {
	n.SelectedIndex = 0
	n.ScrollOffset = 0
}

// ResolveRowIndex maps SelectedIndex to an index into the currently loaded
// page of rows. In browse mode the loaded page starts at ScrollOffset; in
// filter mode all results are loaded at once and SelectedIndex is used
// directly.
func (n *NavState) ResolveRowIndex() int {
	if n.InFilterMode {
		return n.SelectedIndex
	}
	return n.SelectedIndex - n.ScrollOffset
}
