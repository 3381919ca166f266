package middleware

import (
	"context"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	RequestsPerSecond float64 // refill rate
	BurstCapacity     int     // bucket size
	Enabled           bool
}

// tokenBucket refills at ARGV[1] tokens/s up to ARGV[2] and takes one
// token per call. Bucket state is {last_refill, tokens}; ARGV[3] is the
// caller's clock in seconds.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local rate = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
	local last_refill = tonumber(bucket[1]) or now
	local tokens = tonumber(bucket[2]) or capacity

	local elapsed = math.max(0, now - last_refill)
	tokens = math.min(capacity, tokens + elapsed * rate)

	local allowed = 0
	if tokens >= 1 then
		tokens = tokens - 1
		allowed = 1
	end

	redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
	redis.call('EXPIRE', key, ttl)
	return allowed
`)

// RateLimiter is a Redis-backed token bucket shared by the gRPC and HTTP
// transports. Buckets are keyed by caller and route.
type RateLimiter struct {
	client *redis.Client
	config RateLimiterConfig
	log    *zap.Logger
	now    func() time.Time
}

// NewRateLimiter creates a new rate limiter. A nil client disables limiting.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
		log:    log,
		now:    time.Now,
	}
}

// Enabled reports whether requests are being limited
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.client != nil && rl.config.Enabled
}

// Config returns the limiter settings
func (rl *RateLimiter) Config() RateLimiterConfig {
	return rl.config
}

// Allow takes one token from the bucket named by key. Redis failures let
// the request through.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if !rl.Enabled() {
		return true
	}

	now := float64(rl.now().UnixNano()) / float64(time.Second)
	allowed, err := tokenBucket.Run(ctx, rl.client, []string{"ratelimit:tb:" + key},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		now,
		rl.bucketTTL(),
	).Int64()
	if err != nil {
		rl.log.Warn("rate limiter redis error, allowing request", zap.String("key", key), zap.Error(err))
		return true
	}

	return allowed == 1
}

// bucketTTL keeps a bucket around for as long as a full refill takes, and
// at least a minute.
func (rl *RateLimiter) bucketTTL() int {
	ttl := 60
	if rl.config.RequestsPerSecond > 0 {
		refill := int(math.Ceil(float64(rl.config.BurstCapacity) / rl.config.RequestsPerSecond))
		if refill > ttl {
			ttl = refill
		}
	}
	return ttl
}

// UnaryInterceptor returns a gRPC unary interceptor for rate limiting.
func (rl *RateLimiter) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if !rl.Enabled() {
			return handler(ctx, req)
		}

		clientIP := clientIP(ctx)
		if !rl.Allow(ctx, fmt.Sprintf("%s:%s", info.FullMethod, clientIP)) {
			rl.log.Warn("rate limit exceeded",
				zap.String("client_ip", clientIP),
				zap.String("method", info.FullMethod),
			)
			return nil, status.Errorf(codes.ResourceExhausted,
				"rate limit exceeded: %.2f requests/second (burst capacity: %d)",
				rl.config.RequestsPerSecond, rl.config.BurstCapacity)
		}

		return handler(ctx, req)
	}
}

// clientIP extracts the caller address from the gRPC context.
func clientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if xff := md.Get("x-forwarded-for"); len(xff) > 0 {
			return xff[0]
		}
		if xri := md.Get("x-real-ip"); len(xri) > 0 {
			return xri[0]
		}
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		addr := p.Addr.String()
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
		return addr
	}

	return "unknown"
}
