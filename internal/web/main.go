package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/authrelay/authrelay/internal/auth"
	"github.com/authrelay/authrelay/internal/config"
	accesslog "github.com/authrelay/authrelay/internal/logger/adapter/fiber"
	"github.com/authrelay/authrelay/internal/web/classnames"
	"github.com/authrelay/authrelay/internal/web/handler"
	"github.com/authrelay/authrelay/internal/web/handler/api"
	"github.com/authrelay/authrelay/internal/web/handler/dashboard"
	"github.com/authrelay/authrelay/internal/web/handler/login"
	"github.com/authrelay/authrelay/internal/web/handler/logout"
	"github.com/authrelay/authrelay/internal/web/handler/register"
	authmw "github.com/authrelay/authrelay/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers 200 while the service accepts traffic.
	CheckAlivePath = "/checkalive"

	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	relay        *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the web service gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, relay *auth.Service) (*Service, error) {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if relay == nil {
		panic("relay cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: readBufferSize(cfg),
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          newTemplateEngine(cfg),
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
		relay:        relay,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		UserID: func(c *fiber.Ctx) string {
			if user := authmw.CurrentUser(c); user != nil {
				return user.ID.String()
			}

			return ""
		},
	}))

	// routes without a session lookup
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:   subFS(embeddedStatic, "static"),
				Browse: cfg.Webserver.BrowseStatic,
			},
		),
	)
	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// every route below needs the session sync
	app.Use(authmw.New(authmw.Config{
		Relay:   relay,
		Cookies: handler.CookieOptions(cfg),
	}))

	handlers := []handler.Service{
		&login.Handler,
		&register.Handler,
		&logout.Handler,
		&dashboard.Handler,
		&api.Handler,
	}

	for _, h := range handlers {
		if err := h.Init(app, cfg, relay); err != nil {
			return nil, err //nolint:wrapcheck
		}
	}

	// redirect root to dashboard
	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(handler.DashboardPath)
	})

	return service, nil
}

func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("ok")
}

// readBufferSize bounds the request headers, which carry the chunked session cookies.
func readBufferSize(cfg *config.Config) int {
	if cfg.Webserver.ReadBufferSize > 0 {
		return cfg.Webserver.ReadBufferSize
	}

	return config.DefaultReadBufferSize
}

func newTemplateEngine(cfg *config.Config) *html.Engine {
	templateEngine := html.NewFileSystem(subFS(embeddedTemplates, "templates"), ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	templateEngine.AddFunc("cn", classnames.Merge)
	templateEngine.AddFunc("join", classnames.Join)
	templateEngine.AddFunc("dict", classnames.Cond)

	return templateEngine
}
