package emuready

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/emuready-client/pkg/aggregate"
	"github.com/Sternrassler/emuready-client/pkg/cache"
	"github.com/Sternrassler/emuready-client/pkg/envelope"
	"github.com/Sternrassler/emuready-client/pkg/pagination"
	"github.com/Sternrassler/emuready-client/pkg/rpcerr"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Procedure names.
const (
	ProcGetGames       = "mobile.getGames"
	ProcGetListings    = "mobile.getListings"
	ProcGetGameByID    = "mobile.getGameById"
	ProcGetListingByID = "mobile.getListingById"
)

// DefaultMaxPerformanceRank is the highest performance rank the service hands out.
const DefaultMaxPerformanceRank = 8

// DefaultCacheTTL is how long cached responses stay fresh.
const DefaultCacheTTL = 5 * time.Minute

// Caller performs one read procedure call and returns the response envelope.
// *client.Client implements it.
type Caller interface {
	Query(ctx context.Context, procedure string, input any) ([]byte, error)
}

// Options configures a Service.
type Options struct {
	// Cache is optional. When set, success-branch responses are stored.
	Cache    cache.Store
	CacheTTL time.Duration

	// MaxPerformanceRank normalizes compatibility scores.
	MaxPerformanceRank int
}

// Service builds page controllers and lookups for the EmuReady procedures.
type Service struct {
	caller  Caller
	store   cache.Store
	ttl     time.Duration
	maxRank float64
	logger  zerolog.Logger
}

// New creates a service on caller.
func New(caller Caller, opts Options) (*Service, error) {
	if caller == nil {
		return nil, fmt.Errorf("caller is required")
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.MaxPerformanceRank <= 0 {
		opts.MaxPerformanceRank = DefaultMaxPerformanceRank
	}

	return &Service{
		caller:  caller,
		store:   opts.Cache,
		ttl:     opts.CacheTTL,
		maxRank: float64(opts.MaxPerformanceRank),
		logger:  log.With().Str("component", "emuready").Logger(),
	}, nil
}

// Games lists games with the offset convention. The page size is sent as
// limit; a page shorter than it is the last one.
func (s *Service) Games(filter GamesFilter) (*pagination.Controller[Game, Game], error) {
	return pagination.New(pagination.Endpoint[Game, Game]{
		Name:       ProcGetGames,
		Convention: pagination.Offset,
		Fetch: s.fetcher(ProcGetGames, func(key, pageSize int) any {
			return filter.input(key, pageSize)
		}),
		Transform: pagination.PassThrough[Game],
	})
}

// Listings lists compatibility reports with the page-number convention.
// Only an empty page ends the list.
func (s *Service) Listings(filter ListingsFilter) (*pagination.Controller[Listing, Listing], error) {
	return pagination.New(pagination.Endpoint[Listing, Listing]{
		Name:       ProcGetListings,
		Convention: pagination.PageNumber,
		Fetch:      s.listingsFetcher(filter),
		Transform:  pagination.PassThrough[Listing],
	})
}

// Compatibility loads listing pages like Listings and folds each page into
// one summary per game. Termination follows the raw listing rows. A game whose
// listings span several pages has a summary on each; MergeSummaries combines
// them.
func (s *Service) Compatibility(filter ListingsFilter) (*pagination.Controller[Listing, GameSummary], error) {
	return pagination.New(pagination.Endpoint[Listing, GameSummary]{
		Name:       ProcGetListings + ".compatibility",
		Convention: pagination.PageNumber,
		Fetch:      s.listingsFetcher(filter),
		Transform:  s.summarize,
	})
}

func (s *Service) listingsFetcher(filter ListingsFilter) pagination.Fetcher {
	return s.fetcher(ProcGetListings, func(key, pageSize int) any {
		return filter.input(key, pageSize)
	})
}

// Game looks up one game.
func (s *Service) Game(ctx context.Context, id string) (*Game, error) {
	return lookup[Game](ctx, s, ProcGetGameByID, id)
}

// Listing looks up one listing.
func (s *Service) Listing(ctx context.Context, id string) (*Listing, error) {
	return lookup[Listing](ctx, s, ProcGetListingByID, id)
}

func lookup[T any](ctx context.Context, s *Service, procedure, id string) (*T, error) {
	if id == "" {
		return nil, &rpcerr.Error{Kind: rpcerr.KindValidation, Message: "id is required"}
	}

	body, err := s.query(ctx, procedure, byIDInput{ID: id})
	if err != nil {
		return nil, rpcerr.Translate(err)
	}

	out, err := envelope.Decode[T](body)
	if errors.Is(err, envelope.ErrEmptyResult) {
		// A lookup without payload means the entity does not exist.
		return nil, &rpcerr.Error{Kind: rpcerr.KindNotFound, Message: procedure + " " + id, Err: err}
	}
	if err != nil {
		return nil, rpcerr.Translate(err)
	}
	return &out, nil
}

// fetcher is the pagination fetcher of procedure with the read-through cache.
func (s *Service) fetcher(procedure string, build func(key, pageSize int) any) pagination.Fetcher {
	return func(ctx context.Context, key, pageSize int) ([]byte, error) {
		return s.query(ctx, procedure, build(key, pageSize))
	}
}

// query calls procedure, consulting the cache first when one is configured.
// Cache failures are logged and never fail the call.
func (s *Service) query(ctx context.Context, procedure string, input any) ([]byte, error) {
	if s.store == nil {
		return s.caller.Query(ctx, procedure, input)
	}

	encoded, err := envelope.Encode(input)
	if err != nil {
		return s.caller.Query(ctx, procedure, input)
	}
	key := cache.Key{Procedure: procedure, Input: encoded}

	entry, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		s.logger.Debug().
			Str("procedure", procedure).
			Dur("age", entry.Age()).
			Msg("Cache hit")
		return entry.Data, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn().Err(err).Str("procedure", procedure).Msg("Cache get error")
	}

	body, err := s.caller.Query(ctx, procedure, input)
	if err != nil {
		return nil, err
	}

	if resp, perr := envelope.Parse(body); perr == nil {
		if _, ok := resp.(envelope.Success); ok {
			if err := s.store.Put(ctx, key, cache.NewEntry(body, s.ttl)); err != nil {
				s.logger.Warn().Err(err).Str("procedure", procedure).Msg("Failed to cache response")
			}
		}
	}

	return body, nil
}

// summarize folds listing rows into per-game summaries. Rows without a game
// id cannot be attributed, and unrated rows carry no rank to average; both
// are dropped.
func (s *Service) summarize(rows []Listing) []GameSummary {
	valid := rows[:0:0]
	for _, row := range rows {
		switch {
		case row.gameID() == "":
			s.logger.Debug().Str("listing_id", row.ID).Msg("Dropping listing without game")
			continue
		case row.Performance == nil:
			s.logger.Debug().Str("listing_id", row.ID).Msg("Dropping unrated listing")
			continue
		}
		valid = append(valid, row)
	}

	entities := aggregate.Fold(valid, Listing.gameID, Listing.gameOrStub, Listing.rank, s.maxRank)
	return fromEntities(entities)
}

// MergeSummaries combines summaries of the same game, e.g. from consecutive
// Compatibility pages, into one per game. Listing counts add up and scores are
// averaged weighted by listing count. Order is first-seen.
func MergeSummaries(summaries []GameSummary) []GameSummary {
	entities := make([]aggregate.Entity[Game], len(summaries))
	for i, sum := range summaries {
		entities[i] = aggregate.Entity[Game]{
			ID:       sum.Game.ID,
			Parent:   sum.Game,
			RowCount: sum.Listings,
			Score:    sum.Score,
		}
	}
	return fromEntities(aggregate.Merge(entities))
}

func fromEntities(entities []aggregate.Entity[Game]) []GameSummary {
	out := make([]GameSummary, len(entities))
	for i, e := range entities {
		out[i] = GameSummary{Game: e.Parent, Listings: e.RowCount, Score: e.Score}
	}
	return out
}
