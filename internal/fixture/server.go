// Package fixture implements a local backend that speaks the envelope protocol. It serves
// synthetic table data, a demo account, articles and file transfer endpoints, and is used
// both by the command line tool and by tests of the request pipeline.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/zcc135820/reqpipe/internal/config"
	"github.com/zcc135820/reqpipe/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// RoutePrefix is the path every fixture route is mounted under.
const RoutePrefix = "/api"

// Server is the fixture backend. It is safe for concurrent use.
type Server struct {
	engine *gin.Engine

	mu           sync.RWMutex
	total        int
	username     string
	password     string
	passwordHash []byte
	filesDir     string
	tokens       map[string]string
	profile      user
	uploads      map[string][]byte
	table        tableState
	articles     articleState
	// configuredHash is the password-hash setting the current passwordHash came from.
	configuredHash string
}

// New builds a fixture server from cfg.Fixture.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("fixture: config is nil")
	}
	s := &Server{
		tokens:  make(map[string]string),
		uploads: make(map[string][]byte),
	}
	if err := s.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	s.table.reset()
	s.articles.seed(s.profile)
	s.engine = s.routes()
	return s, nil
}

// ApplyConfig updates the reloadable settings: table size, demo account and files directory.
func (s *Server) ApplyConfig(cfg *config.Config) error {
	fc := cfg.Fixture
	total := fc.Total
	if total <= 0 {
		total = config.DefaultFixtureTotal
	}
	username := strings.TrimSpace(fc.Username)
	if username == "" {
		username = "admin"
	}

	s.mu.RLock()
	sameAccount := s.username == username && s.password == fc.Password && s.configuredHash == fc.PasswordHash
	current := s.passwordHash
	s.mu.RUnlock()

	hash := current
	if !sameAccount || len(hash) == 0 {
		var err error
		hash, err = resolvePasswordHash(fc.Password, fc.PasswordHash)
		if err != nil {
			return err
		}
	}

	filesDir := strings.TrimSpace(fc.FilesDir)
	if filesDir != "" {
		filesDir = filepath.Clean(filesDir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total != 0 && s.total != total {
		log.Infof("fixture: table total changed from %d to %d", s.total, total)
	}
	s.total = total
	s.filesDir = filesDir
	if s.username != username {
		s.tokens = make(map[string]string)
		s.profile = user{ID: 1, Name: username, Email: username + "@example.com"}
	}
	s.username = username
	s.password = fc.Password
	s.configuredHash = fc.PasswordHash
	s.passwordHash = hash
	return nil
}

func resolvePasswordHash(password, hash string) ([]byte, error) {
	if strings.TrimSpace(hash) != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("fixture: invalid password hash: %w", err)
		}
		return []byte(hash), nil
	}
	if password == "" {
		return nil, fmt.Errorf("fixture: password or password-hash is required")
	}
	generated, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("fixture: hash password: %w", err)
	}
	return generated, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.engine }

// Total reports the current number of table records.
func (s *Server) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

func (s *Server) routes() *gin.Engine {
	engine := gin.New()
	engine.Use(logging.GinLogrusLogger(), logging.GinLogrusRecovery(), corsMiddleware())
	engine.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, http.StatusNotFound, "not found")
	})

	api := engine.Group(RoutePrefix)
	api.GET("/table", s.handleTableQuery)
	api.POST("/table", s.handleTablePost)
	api.POST("/table/search", s.handleTableSearch)
	api.PUT("/table/:id", s.handleTableUpdate)
	api.DELETE("/table/:id", s.handleTableDelete)

	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)
	authed := api.Group("", s.requireToken())
	authed.GET("/user/info", s.handleUserInfo)
	authed.PUT("/user/profile", s.handleUserUpdate)
	authed.POST("/user/avatar", s.handleAvatar)

	api.GET("/articles", s.handleArticleList)
	api.GET("/articles/:id", s.handleArticleGet)
	api.POST("/articles", s.handleArticleCreate)
	api.PUT("/articles/:id", s.handleArticleUpdate)
	api.DELETE("/articles/:id", s.handleArticleDelete)

	api.POST("/upload", s.handleUpload)
	api.GET("/files/*name", s.handleFile)
	return engine
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-Id")
		if c.Request.Method == http.MethodOptions {
			logging.SkipGinRequestLogging(c)
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// ok writes a success envelope.
func ok(c *gin.Context, message string, data any) {
	logging.SetEnvelopeCode(c, http.StatusOK)
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data, "success": true})
}

// fail writes a failure envelope with the given HTTP status and envelope code.
func fail(c *gin.Context, status, code int, message string) {
	logging.SetEnvelopeCode(c, code)
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message, "data": nil, "success": false})
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("fixture: listen on %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("fixture server listening on %s", ln.Addr())
		if errServe := server.Serve(ln); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
		}
		close(errCh)
	}()

	select {
	case errServe := <-errCh:
		return errServe
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	log.Debug("stopping fixture server")
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return fmt.Errorf("fixture: shutdown: %w", errShutdown)
	}
	return nil
}
