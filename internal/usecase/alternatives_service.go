package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/swytch/backend/internal/domain"
	"github.com/swytch/backend/internal/infrastructure/metrics"
)

// AlternativesConfig holds configuration for the alternatives service
type AlternativesConfig struct {
	ResultsPerQuery int
	Concurrency     int
	TaskTimeout     time.Duration
	CacheTTL        time.Duration
}

// SearchTrace records what the alternatives pipeline did, for debug output
type SearchTrace struct {
	Strategy         domain.SearchStrategy `json:"strategy"`
	CacheHit         bool                  `json:"cache_hit"`
	Stub             bool                  `json:"stub,omitempty"`
	Placeholder      bool                  `json:"placeholder,omitempty"`
	Tasks            int                   `json:"tasks"`
	ShortQueries     int                   `json:"short_queries"`
	Candidates       int                   `json:"candidates"`
	StorefrontCounts map[string]int        `json:"storefront_counts,omitempty"`
}

// AlternativesService finds lower-carbon purchasable alternatives
type AlternativesService struct {
	strategy    *StrategyService
	ranking     *RankingService
	searcher    domain.StorefrontSearcher
	storefronts []domain.Storefront
	cache       domain.CacheRepository
	config      AlternativesConfig
	logger      *zap.Logger
}

// NewAlternativesService creates an alternatives service. cache may be nil.
func NewAlternativesService(
	strategy *StrategyService,
	ranking *RankingService,
	searcher domain.StorefrontSearcher,
	storefronts []domain.Storefront,
	cache domain.CacheRepository,
	config AlternativesConfig,
	logger *zap.Logger,
) *AlternativesService {
	if config.ResultsPerQuery <= 0 {
		config.ResultsPerQuery = 8
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 6
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = 15 * time.Second
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlternativesService{
		strategy:    strategy,
		ranking:     ranking,
		searcher:    searcher,
		storefronts: storefronts,
		cache:       cache,
		config:      config,
		logger:      logger.Named("alternatives"),
	}
}

// cachedAlternatives is the cache payload
type cachedAlternatives struct {
	Strategy domain.SearchStrategy    `json:"strategy"`
	Items    []domain.AlternativeItem `json:"items"`
}

// Search returns at most five alternatives with unique URLs.
// Flow: stub when nothing is searchable -> cache -> strategy -> fan-out ->
// rank -> placeholder when empty -> cache
func (s *AlternativesService) Search(ctx context.Context, product domain.ProductInfo, baselineCO2e *float64) ([]domain.AlternativeItem, *SearchTrace) {
	trace := &SearchTrace{}

	if len(s.storefronts) == 0 || s.searcher == nil {
		metrics.Fallbacks.WithLabelValues("alternatives").Inc()
		trace.Stub = true
		return StubAlternatives(), trace
	}

	cacheKey := s.cacheKey(product)
	if cached, ok := s.getFromCache(ctx, cacheKey); ok {
		trace.CacheHit = true
		trace.Strategy = cached.Strategy
		metrics.AlternativesReturned.Observe(float64(len(cached.Items)))
		return cached.Items, trace
	}

	strategy := s.strategy.Build(ctx, product)
	trace.Strategy = strategy

	candidates := s.fanOut(ctx, strategy, trace)
	trace.Candidates = len(candidates)

	ranked := s.ranking.Rank(candidates, strategy, baselineCO2e)
	items := Items(ranked)

	if len(items) == 0 {
		metrics.Fallbacks.WithLabelValues("alternatives").Inc()
		trace.Placeholder = true
		items = []domain.AlternativeItem{PlaceholderAlternative(strategy)}
	} else {
		s.saveToCache(ctx, cacheKey, cachedAlternatives{Strategy: strategy, Items: items})
	}

	s.logger.Info("alternatives selected",
		zap.String("product", product.Name),
		zap.String("essence", strategy.Essence),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(items)))
	metrics.AlternativesReturned.Observe(float64(len(items)))
	return items, trace
}

type searchTask struct {
	storefront domain.Storefront
	query      string
}

// fanOut runs one task per (query, storefront) pair concurrently. Task
// failures are logged and contribute nothing.
func (s *AlternativesService) fanOut(ctx context.Context, strategy domain.SearchStrategy, trace *SearchTrace) []domain.Candidate {
	var tasks []searchTask
	for _, q := range strategy.Queries {
		for _, sf := range s.storefronts {
			if taskAllowed(q, sf) {
				tasks = append(tasks, searchTask{storefront: sf, query: q})
			}
		}
	}
	trace.Tasks = len(tasks)
	trace.StorefrontCounts = make(map[string]int)

	var (
		mu         sync.Mutex
		candidates []domain.Candidate
	)

	g := new(errgroup.Group)
	g.SetLimit(s.config.Concurrency)
	for _, task := range tasks {
		g.Go(func() error {
			found, usedShort := s.runTask(ctx, strategy, task)

			mu.Lock()
			defer mu.Unlock()
			candidates = append(candidates, found...)
			trace.StorefrontCounts[task.storefront.Name] += len(found)
			if usedShort {
				trace.ShortQueries++
			}
			return nil
		})
	}
	_ = g.Wait()

	return candidates
}

// runTask tries the full query, then the short query once. The first
// non-empty result wins.
func (s *AlternativesService) runTask(ctx context.Context, strategy domain.SearchStrategy, task searchTask) ([]domain.Candidate, bool) {
	found, err := s.searchOnce(ctx, task.storefront, task.query)
	if err == nil && len(found) > 0 {
		return found, false
	}
	if err != nil {
		s.logger.Debug("storefront search failed",
			zap.String("storefront", task.storefront.Name),
			zap.String("query", task.query),
			zap.Error(err))
	}

	short := ShortQuery(strategy)
	if strings.EqualFold(short, task.query) || ctx.Err() != nil {
		return nil, false
	}

	found, err = s.searchOnce(ctx, task.storefront, short)
	if err != nil {
		s.logger.Debug("short query failed",
			zap.String("storefront", task.storefront.Name),
			zap.String("query", short),
			zap.Error(err))
		return nil, true
	}
	return found, true
}

func (s *AlternativesService) searchOnce(ctx context.Context, sf domain.Storefront, query string) ([]domain.Candidate, error) {
	taskCtx, cancel := context.WithTimeout(ctx, s.config.TaskTimeout)
	defer cancel()
	return s.searcher.Search(taskCtx, sf, query, s.config.ResultsPerQuery)
}

// taskAllowed keeps site: queries off storefronts that cannot honour them
func taskAllowed(query string, sf domain.Storefront) bool {
	if !strings.Contains(query, "site:") {
		return true
	}
	return sf.Kind == domain.StorefrontGoogle && sf.Domain == ""
}

// cacheKey fingerprints the product attributes that affect the search
func (s *AlternativesService) cacheKey(p domain.ProductInfo) string {
	parts := []string{p.Name, p.Category, p.Material, p.Region, p.Brand}
	for i := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(parts[i]))
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "alternatives:" + hex.EncodeToString(sum[:16])
}

func (s *AlternativesService) getFromCache(ctx context.Context, key string) (*cachedAlternatives, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var cached cachedAlternatives
	if err := json.Unmarshal(data, &cached); err != nil || len(cached.Items) == 0 {
		return nil, false
	}
	return &cached, true
}

func (s *AlternativesService) saveToCache(ctx context.Context, key string, value cachedAlternatives) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.config.CacheTTL); err != nil {
		s.logger.Warn("cache write failed", zap.Error(err))
	}
}
