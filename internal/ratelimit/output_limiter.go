package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ledgerwell/praxis/internal/config"
	obsmetrics "github.com/ledgerwell/praxis/internal/observability/metrics"
)

const (
	keyOutputCaller     = "praxis:outputs:ip:%s"
	keyOutputRenderLock = "praxis:outputs:render:%s"

	endpointOutputs = "outputs.generate"
)

// OutputLimiter throttles output generation. Rendering a statutory pack is
// the one genuinely expensive endpoint, so it carries a per-caller token
// bucket plus a short per-document lock that stops two renders of the same
// document racing each other.
//
// A nil limiter allows everything, and redis being unreachable degrades to
// the same: accounts production must not stall because redis is down.
type OutputLimiter struct {
	log     *zap.Logger
	metrics *obsmetrics.Metrics

	bucket *TokenBucket
	locker *Locker

	rate    float64
	burst   int
	lockTTL time.Duration
}

// Decision is the outcome of an AllowGenerate call.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics
}

// NewOutputLimiter builds the limiter, or returns nil when REDIS_ADDR is
// not configured.
func NewOutputLimiter(p Params) *OutputLimiter {
	log := p.Log.Named("ratelimit")

	addr := strings.TrimSpace(p.Cfg.RedisAddr)
	if addr == "" {
		log.Info("output rate limiting disabled: REDIS_ADDR not set")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Cfg.RedisPassword),
		DB:       p.Cfg.RedisDB,
	})

	rate := p.Cfg.OutputRateLimitRate
	if rate <= 0 {
		rate = 0.5
	}
	burst := p.Cfg.OutputRateLimitBurst
	if burst <= 0 {
		burst = 5
	}
	lockTTL := p.Cfg.OutputRenderLockTTL
	if lockTTL <= 0 {
		lockTTL = 2 * time.Minute
	}

	log.Info("output rate limiting enabled",
		zap.String("redis_addr", addr),
		zap.Float64("rate", rate),
		zap.Int("burst", burst),
		zap.Duration("render_lock_ttl", lockTTL),
	)

	return &OutputLimiter{
		log:     log,
		metrics: p.Metrics,
		bucket:  NewTokenBucket(client),
		locker:  NewLocker(client),
		rate:    rate,
		burst:   burst,
		lockTTL: lockTTL,
	}
}

func (l *OutputLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowGenerate decides whether caller may start an output generation.
// Redis failures allow the request through.
func (l *OutputLimiter) AllowGenerate(ctx context.Context, caller string) Decision {
	if !l.Enabled() {
		return Decision{Allowed: true}
	}

	key := fmt.Sprintf(keyOutputCaller, strings.TrimSpace(caller))
	res, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request", zap.Error(err))
		return Decision{Allowed: true}
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, endpointOutputs, "rate_exceeded")
		return Decision{RetryAfter: res.RetryAfter}
	}

	l.metrics.RecordRateLimitAllowed(ctx, endpointOutputs)
	return Decision{Allowed: true}
}

// TryLockRender claims the render slot for a document. It returns false
// when another render of the same document is already underway; redis
// failures claim the slot anyway.
func (l *OutputLimiter) TryLockRender(ctx context.Context, documentID string) (string, bool) {
	if !l.Enabled() {
		return "", true
	}

	key := fmt.Sprintf(keyOutputRenderLock, strings.TrimSpace(documentID))
	token, ok, err := l.locker.TryLock(ctx, key, l.lockTTL)
	if err != nil {
		l.log.Warn("render lock unavailable, proceeding", zap.Error(err))
		return "", true
	}
	if !ok {
		l.metrics.RecordRateLimitDenied(ctx, endpointOutputs, "render_in_progress")
	}
	return token, ok
}

// ReleaseRender frees the render slot taken by TryLockRender.
func (l *OutputLimiter) ReleaseRender(ctx context.Context, documentID, token string) {
	if !l.Enabled() || token == "" {
		return
	}

	key := fmt.Sprintf(keyOutputRenderLock, strings.TrimSpace(documentID))
	if err := l.locker.Release(ctx, key, token); err != nil {
		l.log.Warn("render lock release failed", zap.Error(err))
	}
}
