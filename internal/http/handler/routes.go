package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"filevault/internal/http/middleware"
	"filevault/internal/service"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB       *sql.DB
	Auth     service.AuthService
	Files    service.FileService
	Shares   service.ShareService
	Gatherer prometheus.Gatherer
	Log      *zap.Logger

	APIPrefix string
	// AuthRatePerMinute and ShareRatePerMinute cap requests per client IP; zero disables the limiter.
	AuthRatePerMinute  int
	ShareRatePerMinute int
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group(d.APIPrefix)
	requireSession := middleware.Authenticate(d.Auth)

	auth := api.Group("/auth", rateLimit(d.AuthRatePerMinute))
	auth.Post("/register", Register(d.Auth, d.Log))
	auth.Post("/login", Login(d.Auth, d.Log))

	files := api.Group("/files", requireSession)
	files.Get("/list", ListFiles(d.Files, d.Log))
	files.Post("/upload", UploadFile(d.Files, d.Log))
	files.Get("/download/:path", DownloadFile(d.Files, d.Log))
	files.Delete("/delete/:id", DeleteFile(d.Files, d.Log))

	share := api.Group("/share")
	share.Post("/shared-files/create", requireSession, CreateShare(d.Shares, d.Log))
	share.Post("/generate/:fileId", requireSession, GenerateShare(d.Shares, d.Log))
	// The Authorization header is never consulted here.
	share.Get("/download/shared/:"+middleware.ShareTokenParam, rateLimit(d.ShareRatePerMinute), DownloadShared(d.Shares, d.Log))
}

func rateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return writeError(c, fiber.StatusTooManyRequests, "TOO_MANY_REQUESTS", "too many requests")
		},
	})
}
