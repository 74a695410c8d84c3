// Package server wires the echo application: middleware order, the
// ingress gate, route registration and the validation profile each
// route carries.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/safqa-app/safqagate/internal/config"
	"github.com/safqa-app/safqagate/internal/handler"
	"github.com/safqa-app/safqagate/internal/ingress"
	"github.com/safqa-app/safqagate/internal/logging"
	"github.com/safqa-app/safqagate/internal/metrics"
	"github.com/safqa-app/safqagate/internal/normalize"
	"github.com/safqa-app/safqagate/internal/registry"
	"github.com/safqa-app/safqagate/internal/repository"
	"github.com/safqa-app/safqagate/internal/response"
	"github.com/safqa-app/safqagate/internal/storage"
	"github.com/safqa-app/safqagate/internal/validate"
)

// Deps are the collaborators main builds before the server. Choices,
// Archive and NewRelic may be nil; the matching surfaces then degrade
// to process-local or disabled behavior.
type Deps struct {
	Emitter  *logging.Emitter
	Registry *registry.Provider
	Metrics  *metrics.GateMetrics
	Choices  *repository.ChoiceRepository
	Archive  *storage.ArchiveClient
	NewRelic *newrelic.Application
}

// Server holds the echo app and the gate it fronts.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	Gate   *ingress.Gate
	Recent *RecentRequestsStore
}

// New builds the echo server, mounts the gate and registers routes with
// their validation profiles.
func New(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true

	if deps.NewRelic != nil {
		e.Use(nrecho.Middleware(deps.NewRelic))
	}
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowedOrigins,
	}))

	recent := newRecentRequestsStore(cfg.Ingress.RecentBuffer)
	extract := ingress.DefaultExtractConfig()
	extract.MaxBodyBytes = cfg.Ingress.MaxBodyBytes
	if len(cfg.Ingress.CapturedHeaders) > 0 {
		extract.CaptureHeaders = cfg.Ingress.CapturedHeaders
	}
	gate := ingress.NewGate(ingress.GateOptions{
		Emitter:  deps.Emitter,
		Registry: deps.Registry,
		Metrics:  deps.Metrics,
		Extract:  extract,
		Rules:    normalize.Rules{URLSuffixes: cfg.Ingress.URLSuffixes},
		Observe:  recent.Add,
	})
	e.Use(gate.Middleware())

	// Ops surface.
	e.GET("/healthz", func(c echo.Context) error {
		return response.OK(c, map[string]any{"status": "ok", "env": cfg.Primary.Env}, "")
	})
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}
	e.GET("/ingress/recent", func(c echo.Context) error {
		return response.OK(c, map[string]any{"requests": recent.Recent()}, "")
	})
	e.GET("/ingress/profiles", func(c echo.Context) error {
		declared := gate.Profiles().Declared()
		out := make([]map[string]any, 0, len(declared))
		for _, key := range gate.Profiles().RouteKeys() {
			out = append(out, map[string]any{"route": key, "profile": declared[key]})
		}
		return response.OK(c, map[string]any{"profiles": out}, "")
	})

	// Registry administration.
	registryAdmin := handler.NewRegistryHandler(deps.Registry, deps.Choices)
	e.GET("/registry", registryAdmin.Show)
	e.PUT("/registry/:field", registryAdmin.ReplaceField)
	e.DELETE("/registry/:field", registryAdmin.RemoveField)
	gate.Profiles().Declare(http.MethodPut, "/registry/:field", validate.Profile{
		Required: []string{"values"},
	})

	// Shipped log archives.
	e.GET("/archives", func(c echo.Context) error {
		if deps.Archive == nil {
			return response.OK(c, map[string]any{"objects": []any{}}, "archive store not configured")
		}
		prefix := c.QueryParam("prefix")
		if prefix == "" {
			prefix = "logs/"
		}
		list, err := deps.Archive.List(c.Request().Context(), prefix)
		if err != nil {
			return err
		}
		return response.OK(c, map[string]any{"objects": list}, "")
	})
	e.GET("/archives/content", func(c echo.Context) error {
		if deps.Archive == nil {
			return echo.NewHTTPError(http.StatusNotFound, "archive store not configured")
		}
		key := c.QueryParam("key")
		if key == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "query param key is required")
		}
		records, err := deps.Archive.FetchRecords(c.Request().Context(), key)
		if err != nil {
			return err
		}
		return response.OK(c, map[string]any{"records": records, "key": key}, "")
	})

	// Business routes and their profiles.
	companies := handler.NewCompanyHandler()
	offers := handler.NewOfferHandler(companies)

	e.POST("/api/companies", companies.Create)
	e.GET("/api/companies", companies.List)
	e.GET("/api/companies/:id", companies.Get)
	gate.Profiles().Declare(http.MethodPost, "/api/companies", validate.Profile{
		Required:       []string{"name", "city"},
		RegistryFields: []string{"city", "industry"},
		URLFields:      []string{"website_url"},
		LargeText:      map[string]int{"description": 2000},
	})

	e.POST("/api/offers", offers.Create)
	e.GET("/api/offers", offers.List)
	gate.Profiles().Declare(http.MethodPost, "/api/offers", validate.Profile{
		Required:       []string{"title"},
		RegistryFields: []string{"category"},
		URLFields:      []string{"offer_url"},
		LargeText:      map[string]int{"details": 2000},
	})

	return &Server{Echo: e, Config: cfg, Gate: gate, Recent: recent}
}

// Start runs the HTTP server until it fails or ctx is cancelled, in
// which case it shuts down gracefully first.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.Shutdown(context.Background())
	}()
	return s.Echo.Start(":" + s.Config.Server.Port)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
