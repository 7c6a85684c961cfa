package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/IAMVanilka/Mnemy/internal/logger"
	"github.com/IAMVanilka/Mnemy/internal/repository"
	"github.com/IAMVanilka/Mnemy/internal/syncer"
	"github.com/IAMVanilka/Mnemy/internal/watcher"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server is the local control API of the watch daemon. The CLI's
// client commands (status, stop, manual sync triggers) talk to it
// over localhost.
type Server struct {
	echo    *echo.Echo
	watcher *watcher.Watcher
	syncer  *syncer.Syncer
	repo    *repository.GameRepository
	port    int
	stopCh  chan struct{}
}

func NewServer(w *watcher.Watcher, s *syncer.Syncer, repo *repository.GameRepository, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	srv := &Server{
		echo:    e,
		watcher: w,
		syncer:  s,
		repo:    repo,
		port:    port,
		stopCh:  make(chan struct{}, 1),
	}
	srv.registerRoutes()
	return srv
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)
	s.echo.GET("/games", s.handleListGames)
	s.echo.POST("/sync/:name", s.handleSync)
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("control server started", zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("control server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"watcher": s.watcher.State().Snapshot(),
	})
}

func (s *Server) handleStop(c echo.Context) error {
	s.stopCh <- struct{}{}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleListGames(c echo.Context) error {
	games, err := s.repo.GetAll()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{"games": games})
}

// handleSync triggers a manual sync. A first sync must be resolved
// explicitly with ?direction=push or ?direction=pull; without it the
// server answers 409 so the caller can ask the user.
func (s *Server) handleSync(c echo.Context) error {
	name := c.Param("name")
	ctx := c.Request().Context()

	var (
		outcome syncer.Outcome
		err     error
	)

	switch c.QueryParam("direction") {
	case "push":
		outcome, err = s.syncer.Push(ctx, name)
	case "pull":
		outcome, err = s.syncer.Pull(ctx, name)
	case "":
		outcome, err = s.syncer.Sync(ctx, name)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "direction must be push or pull"})
	}

	switch {
	case errors.Is(err, syncer.ErrFirstSync):
		return c.JSON(http.StatusConflict, map[string]any{
			"error":      err.Error(),
			"first_sync": true,
		})
	case errors.Is(err, repository.ErrGameNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"direction": outcome.Direction,
		"files":     outcome.Files,
	})
}
