package pagination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/emuready-client/pkg/envelope"
	"github.com/Sternrassler/emuready-client/pkg/rpcerr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrInvalidPageSize is returned for a non-positive page size.
var ErrInvalidPageSize = errors.New("page size must be positive")

// ErrInvalidKey is returned for a page key before the convention's first key.
var ErrInvalidKey = errors.New("page key before first page")

// Convention identifies how an endpoint numbers its pages.
type Convention int

const (
	// Offset keys start at 0, advance by the page size and end on a short page.
	Offset Convention = iota

	// PageNumber keys start at 1, advance by one and end on an empty page.
	PageNumber
)

// String implements fmt.Stringer.
func (c Convention) String() string {
	switch c {
	case Offset:
		return "offset"
	case PageNumber:
		return "page_number"
	default:
		return fmt.Sprintf("convention(%d)", int(c))
	}
}

// Start returns the key of the first page.
func (c Convention) Start() int {
	if c == PageNumber {
		return 1
	}
	return 0
}

// Step returns the key distance between consecutive pages.
func (c Convention) Step(pageSize int) int {
	if c == PageNumber {
		return 1
	}
	return pageSize
}

// Ended reports whether a page of n rows is the last one.
func (c Convention) Ended(n, pageSize int) bool {
	if c == PageNumber {
		return n == 0
	}
	return n < pageSize
}

// Keys computes the previous and next keys around a page of n rows loaded at key.
func (c Convention) Keys(key, pageSize, n int) (prev, next *int) {
	start := c.Start()
	if key > start {
		p := key - c.Step(pageSize)
		if p < start {
			p = start
		}
		prev = &p
	}
	if !c.Ended(n, pageSize) {
		nx := key + c.Step(pageSize)
		next = &nx
	}
	return prev, next
}

// LoadState is the lifecycle of a single Load call.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	PageLoaded
	Failed
)

// String implements fmt.Stringer.
func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case PageLoaded:
		return "page_loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher performs one call for a page and returns the raw response envelope.
type Fetcher func(ctx context.Context, key, pageSize int) ([]byte, error)

// Request identifies the page to load. A nil Key means the first page.
type Request struct {
	Key      *int
	PageSize int
}

// Page is one loaded page.
type Page[T any] struct {
	Key     int
	Data    []T
	PrevKey *int
	NextKey *int

	// Rows is the number of rows the endpoint returned before Transform.
	Rows int
}

// Endpoint describes one paginated procedure.
type Endpoint[R, T any] struct {
	// Name labels logs and metrics, usually the procedure name.
	Name string

	Convention Convention

	Fetch Fetcher

	// Rows decodes the envelope into rows. Defaults to envelope.Decode[[]R].
	Rows func(body []byte) ([]R, error)

	// Transform turns fetched rows into page data (PassThrough or an aggregation).
	Transform func([]R) []T

	// Exhausted optionally marks a page as the last one regardless of its size,
	// for procedures that signal the end in the rows themselves (a trailing
	// marker or hasMore field). The EmuReady procedures rely on page size
	// alone and leave it nil.
	Exhausted func(rows []R) bool
}

// PassThrough is the Transform for endpoints that already return page items.
func PassThrough[T any](rows []T) []T {
	return rows
}

// Controller loads pages of one endpoint. It keeps no per-list state and is
// safe for concurrent use.
type Controller[R, T any] struct {
	ep     Endpoint[R, T]
	logger zerolog.Logger
}

// New validates ep and creates a controller for it.
func New[R, T any](ep Endpoint[R, T]) (*Controller[R, T], error) {
	if ep.Name == "" {
		return nil, fmt.Errorf("endpoint name is required")
	}
	if ep.Fetch == nil {
		return nil, fmt.Errorf("endpoint %s: fetch is required", ep.Name)
	}
	if ep.Transform == nil {
		return nil, fmt.Errorf("endpoint %s: transform is required", ep.Name)
	}
	if ep.Convention != Offset && ep.Convention != PageNumber {
		return nil, fmt.Errorf("endpoint %s: unsupported convention %s", ep.Name, ep.Convention)
	}
	if ep.Rows == nil {
		ep.Rows = envelope.Decode[[]R]
	}

	return &Controller[R, T]{
		ep: ep,
		logger: log.With().
			Str("component", "pagination").
			Str("endpoint", ep.Name).
			Str("convention", ep.Convention.String()).
			Logger(),
	}, nil
}

// Name returns the endpoint name.
func (c *Controller[R, T]) Name() string {
	return c.ep.Name
}

// Convention returns the endpoint key convention.
func (c *Controller[R, T]) Convention() Convention {
	return c.ep.Convention
}

// Load fetches one page. Failures come back as *rpcerr.Error; an empty
// success envelope is an empty last page, not a failure. Load never retries.
//
// If ctx ends before the fetch resolves, Load returns a transport error
// wrapping ctx.Err() and the late result is discarded.
func (c *Controller[R, T]) Load(ctx context.Context, req Request) (*Page[T], error) {
	if req.PageSize <= 0 {
		return nil, &rpcerr.Error{
			Kind:    rpcerr.KindValidation,
			Message: fmt.Sprintf("page size %d", req.PageSize),
			Err:     ErrInvalidPageSize,
		}
	}

	key := c.ep.Convention.Start()
	if req.Key != nil {
		key = *req.Key
	}
	if key < c.ep.Convention.Start() {
		return nil, &rpcerr.Error{
			Kind:    rpcerr.KindValidation,
			Message: fmt.Sprintf("%s key %d", c.ep.Convention, key),
			Err:     ErrInvalidKey,
		}
	}

	startTime := time.Now()
	c.transition(Idle, Loading, key)
	pageLoadsInFlight.WithLabelValues(c.ep.Name).Inc()
	defer func() {
		pageLoadsInFlight.WithLabelValues(c.ep.Name).Dec()
		pageLoadDuration.WithLabelValues(c.ep.Name).Observe(time.Since(startTime).Seconds())
	}()

	rows, err := c.fetchRows(ctx, key, req.PageSize)
	if err != nil {
		failure := rpcerr.Translate(err)
		pageLoadsTotal.WithLabelValues(c.ep.Name, string(failure.Kind)).Inc()
		c.transition(Loading, Failed, key)
		c.logger.Warn().
			Err(failure).
			Int("key", key).
			Int("page_size", req.PageSize).
			Str("error_kind", string(failure.Kind)).
			Msg("Page load failed")
		c.transition(Failed, Idle, key)
		return nil, failure
	}

	data := c.ep.Transform(rows)
	if data == nil {
		data = []T{}
	}

	page := &Page[T]{Key: key, Data: data, Rows: len(rows)}
	page.PrevKey, page.NextKey = c.ep.Convention.Keys(key, req.PageSize, len(rows))
	if c.ep.Exhausted != nil && c.ep.Exhausted(rows) {
		page.NextKey = nil
	}

	pageLoadsTotal.WithLabelValues(c.ep.Name, "loaded").Inc()
	c.transition(Loading, PageLoaded, key)
	c.logger.Debug().
		Int("key", key).
		Int("page_size", req.PageSize).
		Int("rows", len(rows)).
		Int("items", len(data)).
		Bool("last", page.NextKey == nil).
		Dur("duration", time.Since(startTime)).
		Msg("Page loaded")
	c.transition(PageLoaded, Idle, key)

	return page, nil
}

type fetchResult[R any] struct {
	rows []R
	err  error
}

func (c *Controller[R, T]) fetchRows(ctx context.Context, key, pageSize int) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Buffered so an abandoned fetch can still complete and exit.
	done := make(chan fetchResult[R], 1)
	go func() {
		body, err := c.ep.Fetch(ctx, key, pageSize)
		if err != nil {
			done <- fetchResult[R]{err: err}
			return
		}
		rows, err := c.ep.Rows(body)
		if errors.Is(err, envelope.ErrEmptyResult) {
			done <- fetchResult[R]{}
			return
		}
		done <- fetchResult[R]{rows: rows, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-done:
		return res.rows, res.err
	}
}

func (c *Controller[R, T]) transition(from, to LoadState, key int) {
	c.logger.Trace().
		Str("from", from.String()).
		Str("to", to.String()).
		Int("key", key).
		Msg("Load state")
}

// Walk loads pages from the start until the list ends, calling fn for each.
// An error from fn stops the walk and is returned as is.
func (c *Controller[R, T]) Walk(ctx context.Context, pageSize int, fn func(*Page[T]) error) error {
	req := Request{PageSize: pageSize}
	for {
		page, err := c.Load(ctx, req)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if page.NextKey == nil {
			return nil
		}
		req.Key = page.NextKey
	}
}
