package http

import (
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// createCORSMiddleware builds the CORS middleware for the back-office origins in allowOriginsStr
// (comma-separated). It returns nil when CORS is disabled or no usable origin remains. Wildcards
// and anything that is not an absolute http(s) origin are dropped with a warning, since
// credentials are allowed.
func createCORSMiddleware(enabled bool, allowOriginsStr string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins, rejected := parseOrigins(allowOriginsStr)
	for _, origin := range rejected {
		logger.Warn("ignoring invalid CORS origin", slog.String("origin", origin))
	}
	if len(origins) == 0 {
		logger.Warn("CORS enabled but no valid origins configured, CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled", slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type", "Idempotency-Key", CorrelationIDHeader},
		ExposeHeaders:    []string{"X-Request-Id", CorrelationIDHeader, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// parseOrigins splits a comma-separated origin list. Valid origins are returned normalized
// (lowercase scheme and host, no trailing slash); the rest are returned as rejected.
func parseOrigins(originsStr string) (origins, rejected []string) {
	for _, part := range strings.Split(originsStr, ",") {
		candidate := strings.TrimSpace(part)
		if candidate == "" {
			continue
		}
		origin, ok := normalizeOrigin(candidate)
		if !ok {
			rejected = append(rejected, candidate)
			continue
		}
		origins = append(origins, origin)
	}
	return origins, rejected
}

func normalizeOrigin(candidate string) (string, bool) {
	u, err := url.Parse(strings.TrimSuffix(candidate, "/"))
	if err != nil || u.Host == "" || strings.Contains(u.Host, "*") {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", false
	}
	return scheme + "://" + strings.ToLower(u.Host), true
}
