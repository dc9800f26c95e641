package drive

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/cache"
	"go.uber.org/zap"
)

// cached serves key from the cache or computes it with fill. Cache failures
// are logged and treated as misses. Results computed across an eviction are
// returned but not stored. The fill is detached from the caller's
// cancellation since coalesced callers share its result.
func cached[T any](ctx context.Context, s *Service, key string, fill func(ctx context.Context) (T, error)) (T, error) {
	b, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jerr := json.Unmarshal(b, &v); jerr == nil {
			return v, nil
		}
		s.log.Debug("discarding undecodable cache entry", zap.String("key", key))
	case !errors.Is(err, cache.ErrMiss):
		s.log.Debug("cache read failed", zap.String("key", key), zap.Error(err))
	}

	epoch := s.epoch.Load()
	v, err, _ := s.fills.Do(key+"#"+strconv.FormatUint(epoch, 10), func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		v, err := fill(fctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			s.log.Debug("cache encode failed", zap.String("key", key), zap.Error(err))
			return v, nil
		}

		s.guard.RLock()
		defer s.guard.RUnlock()
		if s.epoch.Load() != epoch {
			return v, nil
		}
		if err := s.cache.Set(fctx, key, b, s.cacheTTL); err != nil {
			s.log.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
