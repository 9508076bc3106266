// Package admin exposes the runtime settings over a small HTTP API so they
// can be inspected and changed without going through chat.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/keshon/textcmd/internal/storage"
	"github.com/keshon/textcmd/pkg/cmd"
)

// Store is the persistence the API needs.
type Store interface {
	SaveSettings(snap cmd.Snapshot) error
	FetchCommandHistory(guildID string) ([]storage.CommandHistoryRecord, error)
}

// Jobs is the background job control the API exposes.
type Jobs interface {
	List() []string
	Status() string
	Stop(name string) error
}

type Server struct {
	settings *cmd.Settings
	store    Store
	jobs     Jobs
	token    string
	log      zerolog.Logger
	engine   *gin.Engine
}

// New builds the API. An empty token disables authentication. store may be
// nil, in which case changes are not persisted and history is unavailable.
func New(settings *cmd.Settings, store Store, token string, log zerolog.Logger) *Server {
	s := &Server{settings: settings, store: store, token: token, log: log}

	g := gin.New()
	g.Use(gin.Recovery(), s.requestLog())
	g.GET("/health", s.health)

	api := g.Group("/", s.auth())
	api.GET("/settings", s.getSettings)
	api.PUT("/settings/prefix", s.setPrefix)
	api.PUT("/guilds/:guild/prefix", s.setGuildPrefix)
	api.DELETE("/guilds/:guild/prefix", s.removeGuildPrefix)
	api.PUT("/mutes/channels/:id", s.muteChannel)
	api.DELETE("/mutes/channels/:id", s.unmuteChannel)
	api.PUT("/mutes/users/:id", s.muteUser)
	api.DELETE("/mutes/users/:id", s.unmuteUser)
	api.PUT("/permissions/:name/:user", s.grant)
	api.DELETE("/permissions/:name/:user", s.revoke)
	api.GET("/history/:guild", s.history)
	api.GET("/jobs", s.listJobs)
	api.DELETE("/jobs/:name", s.stopJob)

	s.engine = g
	return s
}

// WithJobs lets the API report and stop background jobs.
func (s *Server) WithJobs(jobs Jobs) *Server {
	s.jobs = jobs
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn().Err(err).Msg("Admin server shutdown")
		}
	}()

	s.log.Info().Str("addr", addr).Msg("Admin server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("Admin request")
	}
}

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token == "" {
			c.Next()
			return
		}
		got, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"err": "unauthorized"})
			return
		}
		c.Next()
	}
}
