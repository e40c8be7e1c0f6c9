package middleware

import (
	"net/http"
	"sync"
	"time"

	"clinicore/config"
	"clinicore/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterStore keeps one limiter per client IP. Entries idle for an
// hour are pruned so a booking portal's churn of patient IPs does not
// grow the map forever.
type rateLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	lastSeen time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var limiterStore = &rateLimiterStore{
	limiters: make(map[string]*clientLimiter),
}

const limiterIdleTTL = time.Hour

// getLimiter returns the limiter for an IP, creating one sized from the
// MAX_REQUESTS_PER_MIN config knob.
func (s *rateLimiterStore) getLimiter(ip string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if now.Sub(s.lastSeen) > limiterIdleTTL {
		s.prune(now)
		s.lastSeen = now
	}

	cl, exists := s.limiters[ip]
	if !exists {
		perMin := config.AppConfig.MaxRequestsPerMin
		if perMin <= 0 {
			perMin = 100
		}
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMin)), perMin),
		}
		s.limiters[ip] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// prune drops limiters that have not been used within the idle TTL.
// Caller holds the lock.
func (s *rateLimiterStore) prune(now time.Time) {
	for ip, cl := range s.limiters {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(s.limiters, ip)
		}
	}
}

// RateLimitMiddleware throttles each client IP so a misbehaving booking
// client cannot hammer the conflict-checked booking path.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiterStore.getLimiter(ip).Allow() {
			utils.GetLogger().Warn("rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "Too many requests. Try again shortly."})
			return
		}
		c.Next()
	}
}
