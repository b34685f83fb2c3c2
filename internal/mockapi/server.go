// Package mockapi is an in-process stand-in for the Treegar X Admin API. It
// serves the same routes, envelopes and auth rules so the console can be
// developed and tested without the real backend.
package mockapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/treegar/admin-console/internal/metrics"
	"github.com/treegar/admin-console/internal/mockapi/middleware"
)

const BasePath = "/api/Admin"

type Options struct {
	APIKey    string
	OTPCode   string
	RateLimit middleware.RateLimitConfig
	// Quiet drops the per-request access log.
	Quiet bool
}

type Server struct {
	e     *echo.Echo
	store *Store
	opts  Options

	mu     sync.Mutex
	faults map[string][]int // "METHOD /route" -> queued statuses
}

// NewServer builds the mock around store (seeded by the caller).
func NewServer(opts Options, store *Store) *Server {
	if opts.OTPCode == "" {
		opts.OTPCode = "123456"
	}
	s := &Server{store: store, opts: opts, faults: map[string][]int{}}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = opts.Quiet
	e.Logger.SetLevel(log.INFO)
	e.Use(echoMid.Recover())
	if !opts.Quiet {
		e.Use(echoMid.Logger())
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	apiKeyMW := middleware.APIKeyMiddleware(opts.APIKey)
	bearerMW := middleware.BearerMiddleware(func(tok string) (string, bool) {
		u, ok := store.UserForToken(tok)
		return u.ID, ok
	})
	rlMW := middleware.RateLimitMiddleware(opts.RateLimit)

	api := e.Group(BasePath, s.countMW, apiKeyMW, s.faultMW)
	api.POST("/login", s.login, rlMW)
	api.POST("/verify-otp", s.verifyOTP, rlMW)
	api.POST("/resend-otp", s.resendOTP, rlMW)

	authed := api.Group("", bearerMW, rlMW)
	authed.GET("/me", s.me)
	authed.GET("/dashboard", s.dashboard)

	authed.GET("/companies", s.listCompanies)
	authed.GET("/companies/stats", s.companyStats)
	authed.GET("/companies/:id", s.getCompany)
	authed.POST("/companies", s.createCompany)
	authed.POST("/companies/:id/approve", s.approveCompany)
	authed.POST("/companies/:id/deny", s.denyCompany)

	authed.GET("/users", s.listUsers)
	authed.POST("/users", s.createUser)
	authed.PUT("/users/:id", s.updateUser)
	authed.PATCH("/users/:id/status", s.setUserStatus)

	authed.GET("/roles", s.listRoles)
	authed.POST("/roles", s.createRole)
	authed.PUT("/roles/:id/permissions", s.updateRolePermissions)
	authed.GET("/permissions", s.listPermissions)

	authed.GET("/customers", s.listCustomers)
	authed.GET("/customers/:id", s.getCustomer)
	authed.GET("/customers/:id/kyc-documents", s.listDocuments)
	authed.POST("/customers/:id/kyc-documents/:doc/approve", s.approveDocument)
	authed.POST("/customers/:id/kyc-documents/:doc/reject", s.rejectDocument)
	authed.GET("/kyc-requirements", s.listRequirements)
	authed.PUT("/kyc-requirements/:id", s.updateRequirement)

	authed.GET("/transactions", s.listTransactions)
	authed.GET("/transactions/:id", s.getTransaction)

	authed.GET("/transfers", s.listTransfers)
	authed.GET("/transfers/pending", s.listPendingTransfers)
	authed.POST("/transfers/:id/approve", s.approveTransfer)
	authed.POST("/transfers/:id/reject", s.rejectTransfer)

	authed.GET("/inflow-fees", s.listFees)
	authed.POST("/inflow-fees", s.createFee)
	authed.PUT("/inflow-fees/:id", s.updateFee)

	s.e = e
	return s
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Store() *Store { return s.store }

func (s *Server) Start(addr string) error {
	s.e.Logger.Infof("mock admin api: listening on %s%s", addr, BasePath)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

// FailNext makes the next request to route (as registered, relative to
// BasePath, e.g. "/transfers/:id/approve") fail with status.
func (s *Server) FailNext(method, route string, status int) {
	s.mu.Lock()
	k := strings.ToUpper(method) + " " + route
	s.faults[k] = append(s.faults[k], status)
	s.mu.Unlock()
}

func (s *Server) faultMW(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		k := c.Request().Method + " " + strings.TrimPrefix(c.Path(), BasePath)
		s.mu.Lock()
		q := s.faults[k]
		var status int
		if len(q) > 0 {
			status, s.faults[k] = q[0], q[1:]
		}
		s.mu.Unlock()
		if status != 0 {
			return fail(c, status, "Injected failure")
		}
		return next(c)
	}
}

func (s *Server) countMW(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		code := c.Response().Status
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		metrics.MockRequestsTotal.WithLabelValues(strings.TrimPrefix(c.Path(), BasePath), strconv.Itoa(code)).Inc()
		return err
	}
}
