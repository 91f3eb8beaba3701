package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"maillist/internal/db"
	"maillist/internal/server"
)

func main() {
	addr := getenvDefault("ML_ADDR", ":8080")

	build := server.BuildInfo{
		Version: getenvDefault("ML_VERSION", "dev"),
		Commit:  getenvDefault("ML_COMMIT", "unknown"),
	}

	// Database. An empty DATABASE_URL falls back to in-memory stores,
	// which lose all data on restart. Dev only.
	var dbConn *sql.DB
	var recipients server.RecipientStore
	var accounts server.AccountStore

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Printf("service=backend msg=%q", "DATABASE_URL not set, using volatile in-memory stores")
		recipients = server.NewMemRecipientStore()
		accounts = server.NewMemAccountStore()
	} else {
		conn, err := server.OpenDB(dsn)
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
			os.Exit(1)
		}
		defer func() { _ = conn.Close() }()

		log.Printf("service=backend msg=%q", "running_migrations")
		if err := db.RunMigrations(conn); err != nil {
			log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "migrations_complete")

		dbConn = conn
		recipients = server.NewPgRecipientStore(conn)
		accounts = server.NewPgAccountStore(conn)
	}

	srv := server.New(server.Config{
		Addr:       addr,
		Build:      build,
		DB:         dbConn,
		Recipients: recipients,
		Accounts:   accounts,
		StaticDir:  getenvDefault("ML_STATIC_DIR", "./public"),
		RateLimit:  getenvInt("ML_RATE_LIMIT", 300),
	})

	// Scheduled snapshot exports (optional, needs S3/MinIO env config).
	if getenvDefault("ML_EXPORT_ENABLED", "") == "true" {
		client, bucket, err := server.NewExportClient()
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "export_disabled", err)
		} else {
			exporter := server.NewExporter(server.ExportConfig{
				Enabled:  true,
				Interval: getenvDuration("ML_EXPORT_INTERVAL", 24*time.Hour),
				Bucket:   bucket,
				Prefix:   getenvDefault("ML_EXPORT_PREFIX", "snapshots/"),
			}, recipients, client)
			exporter.Start()
			defer exporter.Stop()
		}
	}

	// Start the HTTP server in a background goroutine so we can listen
	// for OS signals while the server runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (container stop).
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		// Give the server 5 seconds to finish in-flight requests.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("service=backend msg=%q key=%s value=%q", "bad_int_env", key, v)
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("service=backend msg=%q key=%s value=%q", "bad_duration_env", key, v)
		return def
	}
	return d
}
