/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/labtrack/auth"
	"github.com/humaidq/labtrack/db"
	"github.com/humaidq/labtrack/routes"
	"github.com/humaidq/labtrack/static"
	"github.com/humaidq/labtrack/templates"
)

const runtimeEnvVar = "LABTRACK_ENV"

const (
	sessionLifetime = 14 * 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the web server",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "port",
			Value: "8080",
			Usage: "the web server port",
		},
		databaseURLFlag,
		&cli.StringFlag{
			Name:    "csrf-secret",
			Sources: cli.EnvVars("CSRF_SECRET"),
			Usage:   "secret used to sign CSRF tokens",
		},
		&cli.StringFlag{
			Name:    "env",
			Sources: cli.EnvVars(runtimeEnvVar),
			Value:   "production",
			Usage:   "runtime environment (development or production)",
		},
	},
	Action: start,
}

type runtimeEnv string

const (
	envDevelopment runtimeEnv = "development"
	envProduction  runtimeEnv = "production"
)

func parseRuntimeEnv(raw string) (runtimeEnv, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "development", "dev":
		return envDevelopment, nil
	case "", "production", "prod":
		return envProduction, nil
	default:
		return "", errInvalidRuntimeEnv
	}
}

func start(ctx context.Context, cmd *cli.Command) error {
	databaseURL, err := requireDatabaseURL(cmd)
	if err != nil {
		return err
	}

	csrfSecret := strings.TrimSpace(cmd.String("csrf-secret"))
	if csrfSecret == "" {
		return errCSRFSecretRequired
	}

	env, err := parseRuntimeEnv(cmd.String("env"))
	if err != nil {
		return err
	}

	appLogger.Info("Connecting to database")
	if err := db.Init(ctx, databaseURL); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	appLogger.Info("Syncing database schema")
	if err := db.SyncSchema(ctx); err != nil {
		return fmt.Errorf("failed to sync schema: %w", err)
	}

	provider := auth.NewProvider(auth.NewDBStore(), auth.Options{})
	controller := auth.NewController(provider)
	defer controller.Close()

	f, err := newApp(env, csrfSecret, provider, controller)
	if err != nil {
		return err
	}

	port := cmd.String("port")
	srv := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      f,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     requestStdLogger,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting web server", "port", port, "env", env)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}

	return nil
}

func newApp(env runtimeEnv, csrfSecret string, provider *auth.Provider, controller *auth.Controller) (*flamego.Flame, error) {
	if env == envDevelopment {
		flamego.SetEnv(flamego.EnvTypeDev)
	} else {
		flamego.SetEnv(flamego.EnvTypeProd)
	}

	f := flamego.New()
	f.Use(flamego.Recovery())
	f.Use(flamego.Static(flamego.StaticOptions{
		FileSystem: http.FS(static.Static),
		Prefix:     "static",
	}))
	f.Use(session.Sessioner(session.Options{
		Initer: db.PostgresSessionIniter(),
		Config: db.PostgresSessionConfig{Lifetime: sessionLifetime},
		Cookie: session.CookieOptions{
			Name:     "labtrack_session",
			MaxAge:   int(sessionLifetime.Seconds()),
			Secure:   env == envProduction,
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
		ErrorFunc: func(err error) {
			appLogger.Error("Session error", "error", err)
		},
	}))
	f.Use(routes.RequestLogger)
	f.Use(csrf.Csrfer(csrf.Options{
		Secret: csrfSecret,
	}))

	templateOptions := template.Options{
		FuncMaps: []htmltemplate.FuncMap{templateFuncs()},
	}
	if env == envDevelopment {
		templateOptions.Directory = "templates"
	} else {
		fs, err := template.EmbedFS(templates.Templates, ".", []string{".html"})
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}
		templateOptions.FileSystem = fs
	}
	f.Use(template.Templater(templateOptions))

	f.Use(routes.NoCacheHeaders())
	f.Use(routes.CSRFInjector())
	f.Use(routes.FlashInjector())

	f.Map(provider)
	f.Map(controller)

	routes.Register(f)

	return f, nil
}

func templateFuncs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"formatValue": func(v float64) string {
			return strconv.FormatFloat(v, 'f', -1, 64)
		},
		"optionalValue": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return strconv.FormatFloat(*v, 'f', -1, 64)
		},
		"optionalText": func(v *string) string {
			if v == nil {
				return ""
			}
			return *v
		},
		"formatDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"fieldName": func(prefix string, id fmt.Stringer) string {
			return prefix + "_" + id.String()
		},
	}
}
