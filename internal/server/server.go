package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mapshare/internal/auth"
	"mapshare/internal/export"
	"mapshare/internal/logger"
	"mapshare/internal/repository"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const bodyLimit = "64M"

type Options struct {
	Registry *auth.Registry
	Manager  *auth.Manager
	Exporter *export.Exporter
	Exports  *repository.ExportRepository
	// AuthPath is where the provider redirects after consent.
	AuthPath string
	Port     int
}

type Server struct {
	echo     *echo.Echo
	registry *auth.Registry
	manager  *auth.Manager
	exporter *export.Exporter
	exports  *repository.ExportRepository
	authPath string
	port     int
	stopCh   chan struct{}
}

func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(bodyLimit))

	authPath := strings.Trim(opts.AuthPath, "/")
	if authPath == "" {
		authPath = "auth"
	}

	s := &Server{
		echo:     e,
		registry: opts.Registry,
		manager:  opts.Manager,
		exporter: opts.Exporter,
		exports:  opts.Exports,
		authPath: authPath,
		port:     opts.Port,
		stopCh:   make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/handlers", s.handleListHandlers)
	s.echo.POST("/stop", s.handleStop)

	// OAuth redirect target
	s.echo.GET("/"+s.authPath, s.handleLanding)

	g := s.echo.Group("/auth")
	g.GET("/link", s.handleAuthLink)
	g.POST("/callback", s.handleCallback)
	g.GET("/status", s.handleStatus)
	g.DELETE("/token", s.handleLogout)

	s.echo.GET("/exports", s.handleListExports)
	s.echo.GET("/exports/latest", s.handleLatestExport)
	s.echo.GET("/exports/:uuid", s.handleGetExport)
	s.echo.POST("/exports", s.handleExport)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func unknownHandler(c echo.Context, name string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown handler: " + name})
}

func (s *Server) handleListHandlers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"handlers": s.registry.Names(),
		"default":  auth.DefaultHandlerName,
	})
}

func (s *Server) handleLanding(c echo.Context) error {
	return c.HTML(http.StatusOK, landingPage)
}

func (s *Server) handleAuthLink(c echo.Context) error {
	h, ok := s.registry.ResolveOrDefault(c.QueryParam("handler"))
	if !ok {
		return unknownHandler(c, c.QueryParam("handler"))
	}

	link, err := h.AuthLink(s.authPath)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"handler": h.Name(), "url": link})
}

type callbackRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleCallback(c echo.Context) error {
	var req callbackRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url required"})
	}

	name := auth.HandlerNameFromCallback(req.URL)
	if name == "" {
		name = c.QueryParam("handler")
	}

	h, ok := s.registry.ResolveOrDefault(name)
	if !ok {
		return unknownHandler(c, name)
	}

	if _, err := s.manager.ValidateAndStoreAuth(c.Request().Context(), h, req.URL); err != nil {
		return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"handler":       h.Name(),
		"authenticated": true,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	h, ok := s.registry.ResolveOrDefault(c.QueryParam("handler"))
	if !ok {
		return unknownHandler(c, c.QueryParam("handler"))
	}

	_, err := s.manager.RetrieveAuthToken(c.Request().Context(), h)
	if err != nil && !errors.Is(err, auth.ErrNoToken) {
		return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"handler":       h.Name(),
		"authenticated": err == nil,
	})
}

func (s *Server) handleLogout(c echo.Context) error {
	h, ok := s.registry.ResolveOrDefault(c.QueryParam("handler"))
	if !ok {
		return unknownHandler(c, c.QueryParam("handler"))
	}

	if err := s.manager.DeleteAuthToken(c.Request().Context(), h); err != nil {
		return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleExport(c echo.Context) error {
	h, ok := s.registry.ResolveOrDefault(c.QueryParam("handler"))
	if !ok {
		return unknownHandler(c, c.QueryParam("handler"))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "map content required"})
	}

	blob := auth.Blob{Content: bytes.NewReader(body)}
	res, err := s.exporter.Export(c.Request().Context(), h, blob, c.QueryParam("name"))
	if err != nil {
		return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, res)
}

func (s *Server) handleListExports(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	exports, err := s.exports.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, exports)
}

func (s *Server) handleGetExport(c echo.Context) error {
	exp, err := s.exports.GetByUUID(c.Param("uuid"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "export not found"})
	}

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, exp)
}

// handleLatestExport returns the last successful export of a file name.
func (s *Server) handleLatestExport(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name required"})
	}

	h, ok := s.registry.ResolveOrDefault(c.QueryParam("handler"))
	if !ok {
		return unknownHandler(c, c.QueryParam("handler"))
	}

	exp, err := s.exports.GetLatestSuccess(h.Name(), name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "no successful export of " + name})
	}

	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, exp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUnsupportedOperation):
		return http.StatusNotImplemented
	case errors.Is(err, auth.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, auth.ErrNoHandler), errors.Is(err, auth.ErrNoFileName):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
