package catalog

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/inventario/inventario/internal/shared"
)

// TopN is the length of every statistics list.
const TopN = 5

// Stats are the admin statistics lists.
type Stats struct {
	MostExpensive []Product `json:"most_expensive"`
	Cheapest      []Product `json:"cheapest"`
	HighestStock  []Product `json:"highest_stock"`
	LowestStock   []Product `json:"lowest_stock"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// StatsCache stores computed statistics under a versioned key.
type StatsCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// StatsService computes and caches the statistics lists.
type StatsService struct {
	repo    ProductRepository
	cache   StatsCache
	group   singleflight.Group
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewStatsService constructs a StatsService. cache may be nil.
func NewStatsService(repo ProductRepository, cache StatsCache, logger *slog.Logger, storeTimeout time.Duration) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{repo: repo, cache: cache, timeout: storeTimeout, logger: logger, now: time.Now}
}

// Load returns cached statistics, computing them on a miss. Cache failures
// fall back to computing directly.
func (s *StatsService) Load(ctx context.Context) (Stats, error) {
	if s.cache == nil {
		return s.shared(ctx)
	}
	key, err := s.cache.BuildKey(ctx, "top", "5")
	if err != nil {
		s.logger.Warn("stats cache key", slog.Any("error", err))
		return s.shared(ctx)
	}
	var out Stats
	var loadErr error
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		st, err := s.shared(ctx)
		loadErr = err
		return st, err
	})
	if err == nil {
		return out, nil
	}
	if loadErr != nil {
		return Stats{}, loadErr
	}
	s.logger.Warn("stats cache", slog.Any("error", err))
	return s.shared(ctx)
}

// Invalidate drops every cached statistics entry.
func (s *StatsService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Bump(ctx)
}

// Warm populates the cache ahead of the first admin request.
func (s *StatsService) Warm(ctx context.Context) error {
	_, err := s.Load(ctx)
	return err
}

// shared collapses concurrent computations into one.
func (s *StatsService) shared(ctx context.Context) (Stats, error) {
	ch := s.group.DoChan("stats", func() (any, error) {
		return s.compute(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

func (s *StatsService) compute(ctx context.Context) (Stats, error) {
	out := Stats{GeneratedAt: s.now().UTC()}
	g, ctx := errgroup.WithContext(ctx)
	queries := []struct {
		dest *[]Product
		key  SortKey
		dir  Direction
	}{
		{&out.MostExpensive, SortByPrice, Desc},
		{&out.Cheapest, SortByPrice, Asc},
		{&out.HighestStock, SortByStock, Desc},
		{&out.LowestStock, SortByStock, Asc},
	}
	for _, q := range queries {
		q := q
		g.Go(func() error {
			return shared.WithStoreTimeout(ctx, s.timeout, func(ctx context.Context) error {
				items, err := s.repo.Top(ctx, q.key, q.dir, TopN)
				if err != nil {
					return err
				}
				*q.dest = items
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return out, nil
}
