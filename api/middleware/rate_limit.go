package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/pkg/config"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type rateLimitStore interface {
	RateLimitKey(scope, id string) string
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit enforces a fixed-window per-IP counter for a traffic surface. A
// broken counter backend fails open so traffic keeps flowing.
func RateLimit(scope string, cfg config.RateLimitConfig, store rateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cfg.Disabled || cfg.IPLimit <= 0 || cfg.Window <= 0 || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if ip == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := store.RateLimitKey(scope, ip)
			count, err := store.IncrWindow(ctx, key, cfg.Window)
			if err != nil {
				if logg != nil {
					logg.Error(ctx, "rate limit counter unavailable", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(cfg.IPLimit) {
				if logg != nil {
					fields := map[string]any{
						"scope":          scope,
						"ip":             ip,
						"attempts":       count,
						"limit":          cfg.IPLimit,
						"window_seconds": int(cfg.Window.Seconds()),
					}
					logg.Warn(logg.WithFields(ctx, fields), "rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
