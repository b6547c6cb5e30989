package pagination

import "testing"

func pageOf(prev, next *int, n int) *Page[int] {
	return &Page[int]{PrevKey: prev, NextKey: next, Data: make([]int, n)}
}

func TestRefreshKey(t *testing.T) {
	tests := []struct {
		name   string
		state  ListState[int]
		expect *int
	}{
		{
			name: "no anchor",
			state: ListState[int]{
				Pages: []*Page[int]{pageOf(nil, intPtr(20), 20)},
			},
			expect: nil,
		},
		{
			name:   "no pages",
			state:  ListState[int]{Anchor: intPtr(3)},
			expect: nil,
		},
		{
			name: "anchor inside page with prev key",
			state: ListState[int]{
				Pages:  []*Page[int]{pageOf(intPtr(0), intPtr(20), 20)},
				Anchor: intPtr(5),
			},
			expect: intPtr(1),
		},
		{
			name: "first page falls back to next key",
			state: ListState[int]{
				Pages:  []*Page[int]{pageOf(nil, intPtr(2), 10)},
				Anchor: intPtr(4),
			},
			expect: intPtr(1),
		},
		{
			name: "anchor on second page",
			state: ListState[int]{
				Pages: []*Page[int]{
					pageOf(nil, intPtr(2), 10),
					pageOf(intPtr(1), intPtr(3), 10),
				},
				Anchor: intPtr(15),
			},
			expect: intPtr(2),
		},
		{
			name: "single page list has no keys",
			state: ListState[int]{
				Pages:  []*Page[int]{pageOf(nil, nil, 3)},
				Anchor: intPtr(1),
			},
			expect: nil,
		},
		{
			name: "anchor past the end uses last page",
			state: ListState[int]{
				Pages: []*Page[int]{
					pageOf(nil, intPtr(20), 20),
					pageOf(intPtr(0), nil, 5),
				},
				Anchor: intPtr(99),
			},
			expect: intPtr(1),
		},
		{
			name: "negative anchor uses first page",
			state: ListState[int]{
				Pages: []*Page[int]{
					pageOf(nil, intPtr(20), 20),
					pageOf(intPtr(0), nil, 5),
				},
				Anchor: intPtr(-1),
			},
			expect: intPtr(19),
		},
		{
			name: "nil pages are skipped",
			state: ListState[int]{
				Pages:  []*Page[int]{nil, pageOf(intPtr(20), intPtr(60), 20)},
				Anchor: intPtr(0),
			},
			expect: intPtr(21),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RefreshKey(tt.state)
			if !equalKey(got, tt.expect) {
				t.Errorf("RefreshKey() = %s, want %s", keyString(got), keyString(tt.expect))
			}
		})
	}
}

func TestController_RefreshKey(t *testing.T) {
	ctrl := newInts(t, Offset, fixedFetcher(t, 0))

	state := ListState[int]{
		Pages:  []*Page[int]{pageOf(intPtr(0), intPtr(40), 20)},
		Anchor: intPtr(10),
	}
	if got := ctrl.RefreshKey(state); !equalKey(got, intPtr(1)) {
		t.Errorf("RefreshKey() = %s, want 1", keyString(got))
	}
}
