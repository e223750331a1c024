package web

import (
	"ImageValidator/internal/app/requester"
	"ImageValidator/internal/service/image"
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Handler выполняет одну проверку по вводу формы.
type Handler interface {
	Handle(ctx context.Context, criterion string, img *image.Upload) requester.Reply
}

// Config параметры веб-формы.
type Config struct {
	BindAddr       string
	MaxUploadBytes int64
	MaxPixels      int64 // 0 — image.DefaultMaxPixels
}

// Server веб-форма проверки картинок поверх gin.
type Server struct {
	cfg      Config
	handler  Handler
	engine   *gin.Engine
	srv      *http.Server
	upgrader websocket.Upgrader
	logger   *zap.SugaredLogger
	running  atomic.Bool
}

func NewServer(cfg Config, handler Handler, logger *zap.SugaredLogger) *Server {
	if cfg.BindAddr == "" {
		cfg.BindAddr = "0.0.0.0:7860"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 * 1024 * 1024
	}

	s := &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.accessLog())
	engine.MaxMultipartMemory = cfg.MaxUploadBytes
	engine.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	engine.GET("/", s.handleIndex)
	engine.POST("/", s.handleForm)
	engine.POST("/api/validate", s.handleAPI)
	engine.GET("/api/ws", s.handleWS)
	engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	s.engine = engine

	// Модель может думать долго, поэтому WriteTimeout больше, чем у обычного API.
	s.srv = &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler возвращает http.Handler со всеми маршрутами.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Addr() string { return s.cfg.BindAddr }

// Run слушает адрес и блокируется до отмены ctx, после чего корректно останавливает сервер.
func (s *Server) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("web server is already running")
	}

	ln, err := net.Listen("tcp", s.cfg.BindAddr)
	if err != nil {
		s.running.Store(false)
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Web server listening", "addr", ln.Addr().String())
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) && err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.running.Store(false)
		return err
	case <-ctx.Done():
		return s.Stop(context.WithoutCancel(ctx))
	}
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeoutCause(ctx, 5*time.Second, errors.New("web server shutdown timeout"))
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warnw("graceful shutdown error", "error", err)
		return s.srv.Close()
	}
	s.logger.Infow("Web server stopped")
	return nil
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Infow("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"remote", c.ClientIP(),
		)
	}
}
