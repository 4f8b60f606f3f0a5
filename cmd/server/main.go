package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nickyhof/StructDB"
	"github.com/nickyhof/StructDB/db"
	"github.com/nickyhof/StructDB/fed"
	"github.com/nickyhof/StructDB/mem"
	"github.com/nickyhof/StructDB/sqldb"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "", "duckdb database file, empty for in-memory records only")
	jwtSecret := flag.String("jwt-secret", "", "JWT signing secret, empty disables auth")
	issuer := flag.String("issuer", "structdb", "expected JWT issuer")
	audience := flag.String("audience", "structdb-server", "expected JWT audience")
	devMode := flag.Bool("dev", false, "development logging")
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *devMode {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	// Tasks live in the durable engine when one is configured, notes
	// always live in memory. The federated backend routes between them.
	backends := []db.Backend{}
	if *dbPath != "" {
		engine, err := sqldb.OpenDuckDB(*dbPath)
		if err != nil {
			sugar.Fatalw("open database", "path", *dbPath, "error", err)
		}
		defer engine.Close()
		backends = append(backends, engine)
	}
	backends = append(backends, mem.New())

	backend, err := fed.New(backends...)
	if err != nil {
		sugar.Fatalw("federate backends", "error", err)
	}

	store := StructDB.Open(backend)
	if err := setupTables(store); err != nil {
		sugar.Fatalw("setup tables", "error", err)
	}

	auth := &AuthConfig{
		Enabled:   *jwtSecret != "",
		JWTSecret: *jwtSecret,
		Issuer:    *issuer,
		Audience:  *audience,
	}
	server := NewServer(store, sugar, auth)

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		sugar.Infow("listening", "addr", *addr, "auth", auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("serve", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	sugar.Infow("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		sugar.Errorw("shutdown", "error", err)
	}
}

func setupTables(store *StructDB.Store) error {
	if err := StructDB.CreateTableIfMissing[Task](store); err != nil {
		return err
	}
	return StructDB.CreateTableIfMissing[Note](store)
}
