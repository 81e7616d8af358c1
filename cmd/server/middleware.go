package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"codeberg.org/taleloom/server/internal/config"
	"codeberg.org/taleloom/server/internal/errors"
	"codeberg.org/taleloom/server/internal/logger"
)

// per-IP request limit for the HTTP surface; websocket traffic is
// rate limited per event inside the hub
const httpRateLimit = "100-M"

// allows cross-origin requests from the configured frontend origins;
// permissive when no origins are configured (development)
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	return cors.New(corsConfig)
}

// limits HTTP requests per client IP with an in-memory store
func RateLimitMiddleware() gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(httpRateLimit)
	if err != nil {
		logger.Fatal("invalid rate limit format", "rate", httpRateLimit, "error", err)
	}

	instance := limiter.New(memory.NewStore(), rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		errors.TooManyRequests(c, "too many requests, slow down")
	}))
}
