// Package server is a small WAF management API backed by the local SQLite store.
// The console's API client is tested against it, and cmd/wafconsole-fixture serves it.
package server

import (
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/thesavant42/wafconsole/internal/db"
)

// Options configures the router
type Options struct {
	DB     *db.DB
	Logger *log.Logger

	// JWTSecret enables bearer auth on /api/v1 when set
	JWTSecret []byte
	TokenTTL  time.Duration

	// AdminUser and AdminPasswordHash (bcrypt) enable POST /api/v1/auth/login
	AdminUser         string
	AdminPasswordHash []byte

	AllowedOrigins []string
}

// NewRouter wires middleware and routes
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}

	r := gin.New()
	r.Use(RequestID(), Logger(opts.Logger), gin.Recovery(), cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	if err := r.SetTrustedProxies(nil); err != nil {
		opts.Logger.Warn("failed to set trusted proxies", "error", err)
	}

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found: "+c.Request.Method+" "+c.Request.URL.Path)
	})

	h := &handlers{db: opts.DB, logger: opts.Logger, opts: opts}

	r.GET("/health", func(c *gin.Context) {
		ok(c, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.POST("/auth/login", h.login)

	protected := api.Group("")
	if len(opts.JWTSecret) > 0 {
		protected.Use(Auth(opts.JWTSecret))
	}
	{
		certs := protected.Group("/certificate")
		certs.GET("", h.listCertificates)
		certs.POST("", h.createCertificate)
		certs.PUT("/:id", h.updateCertificate)
		certs.DELETE("/:id", h.deleteCertificate)

		sites := protected.Group("/site")
		sites.GET("", h.listSites)
		sites.POST("", h.createSite)
		sites.PUT("/:id", h.updateSite)
		sites.DELETE("/:id", h.deleteSite)

		logs := protected.Group("/logs")
		logs.GET("", h.listAttackLogs)
		logs.GET("/:id", h.getAttackLog)
	}

	return r
}

// response envelope

type envelope struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Code: 0, Message: "success", Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Code: status, Message: message})
}
