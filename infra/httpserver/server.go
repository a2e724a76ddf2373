// Package httpserver serves the Prometheus scrape endpoint and a liveness probe.
package httpserver

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	app   *fiber.App
	ready atomic.Bool
}

func New(gatherer prometheus.Gatherer) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			IdleTimeout:           5 * time.Second,
			ReadTimeout:           10 * time.Second,
			WriteTimeout:          10 * time.Second,
			DisableStartupMessage: true,
		}),
	}

	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	s.app.Get("/readyz", func(c *fiber.Ctx) error {
		if !s.ready.Load() {
			return c.Status(fiber.StatusServiceUnavailable).SendString("not ready")
		}
		return c.SendString("ready")
	})

	return s
}

func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// App exposes the fiber app, mainly for app.Test in tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(port string) error {
	zap.L().Info("Metrics server listening", zap.String("port", port))
	return s.app.Listen(fmt.Sprintf("0.0.0.0:%s", port))
}

func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}
