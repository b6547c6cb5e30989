package pagination

// ListState is what the caller knows about a list when it is invalidated:
// the pages loaded so far, in key order, and the last viewed item position.
type ListState[T any] struct {
	Pages  []*Page[T]
	Anchor *int
}

// RefreshKey returns the key to restart a list near its anchor: the closest
// page's PrevKey+1, else its NextKey-1, else nil.
func RefreshKey[T any](state ListState[T]) *int {
	if state.Anchor == nil {
		return nil
	}

	page := closestPage(state.Pages, *state.Anchor)
	if page == nil {
		return nil
	}

	switch {
	case page.PrevKey != nil:
		key := *page.PrevKey + 1
		return &key
	case page.NextKey != nil:
		key := *page.NextKey - 1
		return &key
	default:
		return nil
	}
}

// RefreshKey is the package-level RefreshKey for this controller's pages.
func (c *Controller[R, T]) RefreshKey(state ListState[T]) *int {
	return RefreshKey(state)
}

// closestPage finds the page holding item position anchor, counting items
// across pages. Positions past the end map to the last page.
func closestPage[T any](pages []*Page[T], anchor int) *Page[T] {
	var last *Page[T]
	offset := 0
	for _, p := range pages {
		if p == nil {
			continue
		}
		if last == nil && anchor < 0 {
			return p
		}
		last = p
		if anchor < offset+len(p.Data) {
			return p
		}
		offset += len(p.Data)
	}
	return last
}
