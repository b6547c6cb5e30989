// Package pagination turns paginated procedures into typed pages for
// incremental list loading.
//
// Two key conventions exist and are kept apart per endpoint:
//
//   - Offset: key starts at 0 and advances by the page size. A page shorter
//     than the requested size ends the list.
//   - PageNumber: key starts at 1 and advances by one. Only an empty page
//     ends the list.
//
// A Controller holds no list state. Each Load is independent; the caller owns
// the loaded pages and passes them back to RefreshKey when the list is
// invalidated and must restart near the last viewed position.
//
// Example usage:
//
//	ctrl, err := pagination.New(pagination.Endpoint[Game, Game]{
//		Name:       "mobile.getGames",
//		Convention: pagination.Offset,
//		Fetch:      fetcher,
//		Transform:  pagination.PassThrough[Game],
//	})
//	page, err := ctrl.Load(ctx, pagination.Request{PageSize: 20})
//
// LoadRange fetches several consecutive pages with a bounded worker pool.
package pagination
