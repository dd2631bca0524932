package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/foldernotes/notes-server/internal/errors"
	"github.com/foldernotes/notes-server/internal/metrics"
)

// rateLimit is an operation middleware that throttles a client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func (s *Server) rateLimit(ctx huma.Context, next func(huma.Context)) {
	key := clientIP(ctx)
	if !s.authLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		metrics.RecordRateLimited()
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests",
			domainerrors.New(domainerrors.CodeRateLimited, "too many requests, please try again later"))
		return
	}
	next(ctx)
}

// clientIP extracts the client IP from the connection address. Proxy
// headers only count when TrustProxy installed the RealIP middleware,
// which rewrites RemoteAddr before this runs.
func clientIP(ctx huma.Context) string {
	addr := ctx.RemoteAddr()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
