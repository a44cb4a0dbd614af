// Package web provides the secret-keeper web server: routing, session
// handling, templates and background maintenance.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net"
	"net/http"

	"secret-keeper/config"
	"secret-keeper/logger"
	"secret-keeper/util/random"
	"secret-keeper/web/controller"
	"secret-keeper/web/job"
	"secret-keeper/web/middleware"
	"secret-keeper/web/service"
	"secret-keeper/web/session"
	"secret-keeper/web/sessionstore"

	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

//go:embed assets
var assetsFS embed.FS

//go:embed html/*
var htmlFS embed.FS

// Server is the web server: controllers, services, session storage and
// scheduled jobs.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	index   *controller.IndexController
	secrets *controller.SecretController
	google  *controller.GoogleAuthController

	userService   service.UserService
	googleService *service.GoogleAuthService

	memSessions *sessionstore.MemoryBackend

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a web server with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// newSessionStore picks the session backend: Redis when configured and
// reachable, the in-process map otherwise.
func (s *Server) newSessionStore(cfg config.WebConfig) sessions.Store {
	secret := cfg.SessionSecret
	if secret == "" {
		secret = random.Seq(32)
		logger.Warning("SK_SESSION_SECRET not set, using a transient secret; sessions will not survive a restart")
	}
	keyPairs := [][]byte{[]byte(secret)}

	if cfg.RedisAddr != "" {
		backend := sessionstore.NewRedisBackend(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := backend.Ping(s.ctx); err != nil {
			logger.Warningf("redis %s unreachable (%v), falling back to in-memory sessions", cfg.RedisAddr, err)
		} else {
			logger.Info("sessions stored in redis at ", cfg.RedisAddr)
			return sessionstore.NewStore(backend, keyPairs...)
		}
	}

	s.memSessions = sessionstore.NewMemoryBackend()
	return sessionstore.NewStore(s.memSessions, keyPairs...)
}

// initRouter initializes gin, registers middleware, templates, static
// assets and controllers.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.Default()

	webConfig, err := config.GetWebConfig()
	if err != nil {
		return nil, err
	}
	oauthConfig, err := config.GetOAuthConfig()
	if err != nil {
		return nil, err
	}

	if webConfig.Domain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(webConfig.Domain))
	}

	engine.Use(gzip.Gzip(gzip.DefaultCompression))
	engine.Use(sessions.Sessions(session.CookieName, s.newSessionStore(webConfig)))
	engine.Use(middleware.SessionResolverMiddleware(&s.userService))

	tpl, err := template.ParseFS(htmlFS, "html/*.html")
	if err != nil {
		return nil, err
	}
	engine.SetHTMLTemplate(tpl)

	staticFS, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return nil, err
	}
	engine.StaticFS("/assets", http.FS(staticFS))

	s.googleService = service.NewGoogleAuthService(oauthConfig)

	g := engine.Group("/")
	s.index = controller.NewIndexController(g, &s.userService)
	s.secrets = controller.NewSecretController(g, &s.userService)
	s.google = controller.NewGoogleAuthController(g, s.googleService)

	engine.NoRoute(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusNotFound)
	})

	return engine, nil
}

// startTask schedules background maintenance.
func (s *Server) startTask() {
	if s.memSessions != nil {
		s.cron.AddJob("@every 10m", job.NewClearSessionsJob(s.memSessions))
	}
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	s.cron = cron.New()
	s.cron.Start()

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	webConfig, err := config.GetWebConfig()
	if err != nil {
		return err
	}

	listenAddr := fmt.Sprintf(":%d", webConfig.Port)
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.startTask()

	s.httpServer = &http.Server{
		Handler: engine,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			logger.Error("web server err:", err)
		}
	}()

	logger.Infof("web server listening on %s", listenAddr)
	return nil
}

// Stop shuts the server down and releases its resources.
func (s *Server) Stop() error {
	s.cancel()

	if s.cron != nil {
		s.cron.Stop()
	}

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(context.Background())
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	return err
}
