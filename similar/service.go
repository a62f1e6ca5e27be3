package similar

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/similarity/catalog"
	"github.com/jonwraymond/similarity/observe"
	"github.com/jonwraymond/similarity/resilience"
)

// Upstream operation names. They name breakers, spans and metrics.
const (
	OpGetDetail     = "getDetail"
	OpGetSimilarIDs = "getSimilarIds"
)

// DefaultFanoutLimit leaves detail fetches per aggregation unbounded.
const DefaultFanoutLimit = 0

// maxJoins bounds how often a request rejoins a flight abandoned by its owner
// before aggregating on its own.
const maxJoins = 3

// Reasons a candidate is dropped from a result.
const (
	DropNotFound  = "not_found"
	DropTransient = "transient"
	DropInternal  = "internal"
	DropInvalidID = "invalid_id"
)

// Service assembles similar-product results.
//
// Contract:
// - Concurrency: safe for concurrent use. Concurrent requests for the same id
// share one aggregation.
// - Context: every upstream call honors ctx; once ctx ends nothing is cached.
// - Errors: ErrProductNotFound, *InternalError, or the context error.
type Service struct {
	upstream catalog.Upstream
	caller   *resilience.Caller
	cache    *ResultCache
	mw       *observe.Middleware
	metrics  observe.Metrics
	logger   observe.Logger
	fanout   int
	flights  singleflight.Group
}

// Option configures a Service.
type Option func(*Service)

// WithCache memoizes results in rc.
func WithCache(rc *ResultCache) Option {
	return func(s *Service) {
		s.cache = rc
	}
}

// WithMiddleware instruments every upstream attempt with mw.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(s *Service) {
		if mw != nil {
			s.mw = mw
		}
	}
}

// WithFanoutLimit bounds concurrent detail fetches. Zero or less means
// unbounded.
func WithFanoutLimit(n int) Option {
	return func(s *Service) {
		s.fanout = n
	}
}

// NewService creates a Service over upstream. The caller's classifier should
// be Classify.
func NewService(upstream catalog.Upstream, caller *resilience.Caller, opts ...Option) (*Service, error) {
	if upstream == nil {
		return nil, errors.New("similar: upstream is required")
	}
	if caller == nil {
		return nil, errors.New("similar: caller is required")
	}

	s := &Service{
		upstream: upstream,
		caller:   caller,
		mw:       observe.NopMiddleware(),
		fanout:   DefaultFanoutLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = s.mw.Metrics()
	s.logger = s.mw.Logger()
	return s, nil
}

// GetSimilar returns the products similar to id that could be fetched.
func (s *Service) GetSimilar(ctx context.Context, id catalog.ProductID) (Result, error) {
	if err := id.Validate(); err != nil {
		return Result{}, &InternalError{Op: "validate", Err: err}
	}

	if s.cache != nil {
		res, ok := s.cache.Get(ctx, id)
		s.metrics.RecordCacheLookup(ctx, ok)
		if ok {
			s.logger.Debug(ctx, "result served from cache", observe.F("product.id", string(id)))
			return res, nil
		}
	}

	for range maxJoins {
		ch := s.flights.DoChan(string(id), func() (any, error) {
			return s.aggregate(ctx, id)
		})

		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case r := <-ch:
			if r.Err != nil {
				if r.Shared && isContextErr(r.Err) && ctx.Err() == nil {
					// Joined a flight whose owner gave up.
					continue
				}
				return Result{}, r.Err
			}
			res := r.Val.(Result)
			if r.Shared {
				res = res.clone()
			}
			return res, nil
		}
	}
	return s.aggregate(ctx, id)
}

// Invalidate drops the cached result for id so the next GetSimilar
// aggregates again. It is a no-op without a cache.
func (s *Service) Invalidate(ctx context.Context, id catalog.ProductID) error {
	if err := id.Validate(); err != nil {
		return &InternalError{Op: "validate", Err: err}
	}
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		return &InternalError{Op: "invalidate", Err: err}
	}
	s.logger.Info(ctx, "cached result invalidated", observe.F("product.id", string(id)))
	return nil
}

// aggregate performs one uncached aggregation for id.
func (s *Service) aggregate(ctx context.Context, id catalog.ProductID) (Result, error) {
	root := resilience.Call(ctx, s.caller, OpGetDetail, string(id), s.fetchDetail)
	s.recordCall(ctx, OpGetDetail, root.Kind, root.Attempts)
	switch root.Kind {
	case resilience.KindSuccess:
	case resilience.KindNotFound:
		return Result{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	case resilience.KindInternal:
		return Result{}, &InternalError{Op: OpGetDetail, Err: root.Err}
	default:
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		s.logger.Warn(ctx, "root product existence unconfirmed",
			observe.F("product.id", string(id)), observe.F("error", root.Err))
		return Result{}, fmt.Errorf("%w: %s: existence unconfirmed: %v", ErrProductNotFound, id, root.Err)
	}

	ids := resilience.Call(ctx, s.caller, OpGetSimilarIDs, string(id), s.fetchSimilarIDs)
	s.recordCall(ctx, OpGetSimilarIDs, ids.Kind, ids.Attempts)
	if !ids.OK() {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		s.logger.Warn(ctx, "similar ids unavailable",
			observe.F("product.id", string(id)),
			observe.F("kind", ids.Kind.String()),
			observe.F("error", ids.Err))
		return Result{ProductID: id, Items: []catalog.ProductDetail{}}, nil
	}

	items := s.fanOut(ctx, s.candidates(ctx, id, ids.Value))
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := NewResult(id, items)
	if s.cache != nil {
		if err := s.cache.Put(ctx, id, res); err != nil {
			s.logger.Warn(ctx, "result not cached",
				observe.F("product.id", string(id)), observe.F("error", err))
		}
	}
	return res, nil
}

// candidates dedupes ids, keeping first-seen order and dropping the root and
// invalid ids.
func (s *Service) candidates(ctx context.Context, root catalog.ProductID, ids []catalog.ProductID) []catalog.ProductID {
	seen := make(map[catalog.ProductID]struct{}, len(ids))
	out := make([]catalog.ProductID, 0, len(ids))
	for _, cid := range ids {
		if cid == root {
			continue
		}
		if _, dup := seen[cid]; dup {
			continue
		}
		seen[cid] = struct{}{}
		if err := cid.Validate(); err != nil {
			s.drop(ctx, root, cid, DropInvalidID, err)
			continue
		}
		out = append(out, cid)
	}
	return out
}

// fanOut fetches every candidate and returns the successful ones.
func (s *Service) fanOut(ctx context.Context, ids []catalog.ProductID) []catalog.ProductDetail {
	fetched := make([]*catalog.ProductDetail, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if s.fanout > 0 {
		g.SetLimit(s.fanout)
	}
	for i, cid := range ids {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			out := resilience.Call(gctx, s.caller, OpGetDetail, string(cid), s.fetchDetail)
			s.recordCall(gctx, OpGetDetail, out.Kind, out.Attempts)
			if out.OK() {
				fetched[i] = &out.Value
				return nil
			}
			if gctx.Err() == nil {
				s.drop(gctx, "", cid, dropReason(out.Kind), out.Err)
			}
			return nil
		})
	}
	_ = g.Wait()

	items := make([]catalog.ProductDetail, 0, len(ids))
	for _, p := range fetched {
		if p != nil {
			items = append(items, *p)
		}
	}
	return items
}

func (s *Service) fetchDetail(ctx context.Context, key string) (catalog.ProductDetail, error) {
	var p catalog.ProductDetail
	err := s.mw.Wrap(func(ctx context.Context, meta observe.CallMeta) error {
		var err error
		p, err = s.upstream.Product(ctx, catalog.ProductID(meta.Key))
		return err
	})(ctx, observe.CallMeta{Operation: OpGetDetail, Key: key})
	return p, err
}

func (s *Service) fetchSimilarIDs(ctx context.Context, key string) ([]catalog.ProductID, error) {
	var ids []catalog.ProductID
	err := s.mw.Wrap(func(ctx context.Context, meta observe.CallMeta) error {
		var err error
		ids, err = s.upstream.SimilarIDs(ctx, catalog.ProductID(meta.Key))
		return err
	})(ctx, observe.CallMeta{Operation: OpGetSimilarIDs, Key: key})
	return ids, err
}

func (s *Service) recordCall(ctx context.Context, operation string, kind resilience.Kind, attempts int) {
	s.metrics.RecordCall(ctx, operation, kind.String(), attempts)
}

func (s *Service) drop(ctx context.Context, root, id catalog.ProductID, reason string, err error) {
	s.metrics.RecordDropped(ctx, reason)

	fields := []observe.Field{
		observe.F("product.id", string(id)),
		observe.F("reason", reason),
		observe.F("error", err),
	}
	if root != "" {
		fields = append(fields, observe.F("root.id", string(root)))
	}

	switch reason {
	case DropNotFound:
		s.logger.Debug(ctx, "similar product dropped", fields...)
	case DropInternal, DropInvalidID:
		s.logger.Error(ctx, "similar product dropped", fields...)
	default:
		s.logger.Warn(ctx, "similar product dropped", fields...)
	}
}

func dropReason(k resilience.Kind) string {
	switch k {
	case resilience.KindNotFound:
		return DropNotFound
	case resilience.KindInternal:
		return DropInternal
	default:
		return DropTransient
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
