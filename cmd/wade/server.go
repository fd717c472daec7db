package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/wadelive/wade/engine"
)

// Server exposes the driver's status over HTTP. It is read-only; nothing here changes what the
// bot does.
type Server struct {
	echo   *echo.Echo
	httpd  *http.Server
	driver *engine.Driver
	logger *slog.Logger
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func NewServer(driver *engine.Driver, bind string, logger *slog.Logger) *Server {
	e := echo.New()
	srv := &Server{
		echo:   e,
		driver: driver,
		logger: logger,
	}
	srv.httpd = &http.Server{
		Handler:        e,
		Addr:           bind,
		WriteTimeout:   30 * time.Second,
		ReadTimeout:    30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("wade"))

	e.GET("/", srv.HandleHome)
	e.GET("/_health", srv.HandleHealthCheck)
	e.GET("/status", srv.HandleStatus)
	e.GET("/metrics", echoprometheus.NewHandler())
	return srv
}

// Start blocks serving until Shutdown.
func (srv *Server) Start() error {
	srv.logger.Info("starting status server", "bind", srv.httpd.Addr)
	if err := srv.httpd.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (srv *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.httpd.Shutdown(ctx)
}

func (srv *Server) HandleHome(c echo.Context) error {
	return c.String(http.StatusOK, "Wade Live is running.")
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	st := srv.driver.Status()
	if st.State == engine.StateStopped {
		return c.JSON(http.StatusServiceUnavailable, GenericStatus{Daemon: "wade", Status: "error", Message: "driver stopped"})
	}
	return c.JSON(http.StatusOK, GenericStatus{Daemon: "wade", Status: "ok", Message: string(st.State)})
}

func (srv *Server) HandleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, srv.driver.Status())
}
