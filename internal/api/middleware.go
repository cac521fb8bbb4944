package api

import (
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/pillwise/pillwise/internal/metrics"
	"golang.org/x/time/rate"
)

// requireSession rejects requests until someone has logged in. The app
// is single-device, so there is one session, not one per token.
func (s *Server) requireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.sessions.Active() {
			return c.Status(401).JSON(fiber.Map{"error": "login required"})
		}
		return c.Next()
	}
}

// rateLimiter keeps a token bucket per client IP.
func (s *Server) rateLimiter() fiber.Handler {
	var (
		mu       sync.Mutex
		limiters = make(map[string]*rate.Limiter)
	)

	limit := rate.Limit(s.config.Security.RateLimit)
	burst := s.config.Security.RateBurst

	return func(c *fiber.Ctx) error {
		ip := c.IP()

		mu.Lock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(limit, burst)
			limiters[ip] = l
		}
		mu.Unlock()

		if !l.Allow() {
			return c.Status(429).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}

// recordMetrics counts every request by method and status.
func (s *Server) recordMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		metrics.RecordHTTPRequest(c.Method(), strconv.Itoa(c.Response().StatusCode()))
		return err
	}
}
