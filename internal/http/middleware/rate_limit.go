package middleware

import (
	"fmt"
	"net/http"
	"time"

	"numbers_duel/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var rateLimitClient *redis.Client

// InitRedisRateLimiter включает лимитирование запросов через Redis.
// Без инициализации лимитер пропускает все запросы
func InitRedisRateLimiter(client *redis.Client) {
	rateLimitClient = client
}

// RateLimit ограничивает число запросов с одного пользователя (или IP
// до авторизации) фиксированным окном в одну минуту
func RateLimit(limit int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateLimitClient == nil {
			c.Next()
			return
		}

		subject := c.ClientIP()
		if v, ok := c.Get("user_id"); ok {
			subject = fmt.Sprintf("u:%v", v)
		}
		key := fmt.Sprintf("rl:%s:%s:%d", c.FullPath(), subject, time.Now().Unix()/60)

		ctx := c.Request.Context()
		count, err := rateLimitClient.Incr(ctx, key).Result()
		if err != nil {
			// при недоступном Redis пропускаем, лимитер не должен
			// блокировать игру
			logger.Warn("лимитер недоступен", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rateLimitClient.Expire(ctx, key, time.Minute)
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
