// Command wafconsole-fixture serves the WAF management API over a seeded SQLite store
// so the console can be run without a real WAF.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/thesavant42/wafconsole/internal/config"
	"github.com/thesavant42/wafconsole/internal/db"
	"github.com/thesavant42/wafconsole/internal/server"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg := config.Load()

	addr := flag.String("addr", cfg.FixtureAddr, "Listen address")
	dbPath := flag.String("db", ":memory:", "SQLite store to serve")
	certs := flag.Int("certificates", 30, "Demo certificates to seed into an empty store")
	sites := flag.Int("sites", 45, "Demo sites to seed")
	logs := flag.Int("logs", 500, "Demo attack logs to seed")
	noSeed := flag.Bool("no-seed", false, "Serve the store as is")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.LogLevel,
		ReportTimestamp: true,
		Prefix:          "fixture",
	})

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.New(*dbPath)
	if err != nil {
		logger.Fatal("failed to open database", "path", *dbPath, "err", err)
	}
	defer database.Close()

	if !*noSeed {
		counts := db.DemoCounts{Certificates: *certs, Sites: *sites, AttackLogs: *logs}
		if err := database.SeedDemo(context.Background(), counts, time.Now()); err != nil {
			logger.Fatal("failed to seed demo data", "err", err)
		}
		logger.Info("seeded demo data", "certificates", *certs, "sites", *sites, "logs", *logs)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString()
		logger.Warn("WAFCONSOLE_JWT_SECRET not set, using a random secret for this run")
	}

	opts := server.Options{
		DB:        database,
		Logger:    logger,
		JWTSecret: []byte(secret),
		TokenTTL:  cfg.TokenTTL,
	}
	if cfg.User != "" && cfg.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Fatal("failed to hash admin password", "err", err)
		}
		opts.AdminUser = cfg.User
		opts.AdminPasswordHash = hash
	}

	token, err := server.IssueToken(opts.JWTSecret, "fixture", cfg.TokenTTL)
	if err != nil {
		logger.Fatal("failed to issue token", "err", err)
	}
	host := *addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Printf("WAFCONSOLE_API_URL=http://%s\n", host)
	fmt.Printf("WAFCONSOLE_TOKEN=%s\n", token)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           server.NewRouter(opts),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
	logger.Info("stopped")
}
