package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/thesavant42/wafconsole/internal/api"
	"github.com/thesavant42/wafconsole/internal/config"
	"github.com/thesavant42/wafconsole/internal/db"
	"github.com/thesavant42/wafconsole/internal/listing"
	"github.com/thesavant42/wafconsole/internal/resources"
	"github.com/thesavant42/wafconsole/internal/ui"
)

func main() {
	cfg := config.Load()

	apiFlag := flag.String("api", cfg.APIURL, "WAF management API base URL")
	tokenFlag := flag.String("token", cfg.Token, "API bearer token")
	dbFlag := flag.String("db", cfg.DBPath, "Browse a local SQLite store instead of the API")
	logFlag := flag.String("log", cfg.LogPath, "Write logs to this file (the console owns the terminal)")
	navFlag := flag.String("nav", "", "Open attack logs filtered by a query string, e.g. 'srcIp=1.2.3.4&dstPort=443'")
	userFlag := flag.String("user", cfg.User, "Sign in with this user before starting")
	flag.Parse()

	logger, closeLog, err := newLogger(*logFlag, cfg.LogLevel)
	if err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
	defer closeLog()

	opts := ui.Options{
		Seed:         listing.ParseNavSeed(*navFlag, resources.AttackLogSchema, logger),
		FetchTimeout: cfg.FetchTimeout,
		Logger:       logger,
	}

	if *dbFlag != "" {
		database, err := db.New(*dbFlag)
		if err != nil {
			ui.PrintError(fmt.Sprintf("Failed to open database: %v", err))
			os.Exit(1)
		}
		defer database.Close()

		opts.Source = *dbFlag
		opts.Certificates = db.CertificateFetcher{DB: database}
		opts.Sites = db.SiteFetcher{DB: database}
		opts.AttackLogs = db.AttackLogFetcher{DB: database}
		opts.Store = ui.DBStore{DB: database}
	} else {
		client := api.NewClient(*apiFlag, *tokenFlag, logger)
		if *userFlag != "" && *tokenFlag == "" {
			if err := signIn(client, *userFlag, cfg); err != nil {
				ui.PrintError(err.Error())
				os.Exit(1)
			}
		}

		opts.Source = *apiFlag
		opts.Certificates = api.CertificateFetcher{Client: client}
		opts.Sites = api.SiteFetcher{Client: client}
		opts.AttackLogs = api.AttackLogFetcher{Client: client}
		opts.Store = ui.APIStore{Client: client}
	}

	if err := ui.RunConsole(opts); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}

// newLogger logs to path, or nowhere when path is empty
func newLogger(path string, level log.Level) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
	return logger, func() { f.Close() }, nil
}

func signIn(client *api.Client, user string, cfg config.Config) error {
	password := cfg.Password
	if password == "" {
		var err error
		user, password, err = ui.PromptCredentials(user)
		if err != nil {
			return err
		}
	}

	return ui.RunWithSpinner("Signing in as "+user+"...", func() error {
		ctx := context.Background()
		if cfg.FetchTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.FetchTimeout)
			defer cancel()
		}
		if _, err := client.Login(ctx, user, password); err != nil {
			return fmt.Errorf("sign-in failed: %w", err)
		}
		return nil
	})
}
