package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/slotpark/parking-slot-backend/internal/auth"
)

// RateLimit is a fixed-window per-user limiter for write endpoints,
// backed by Redis so the limit holds across processes. It fails open: a
// Redis outage slows nothing down, it only drops the limit.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	if rdb == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		actor := auth.GetUserID(c)
		if actor == "" {
			actor = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%d", actor, time.Now().Unix()/int64(window.Seconds()))

		ctx := c.Request.Context()
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("ratelimit: redis error, allowing request: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
