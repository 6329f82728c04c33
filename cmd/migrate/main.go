package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"bookshelf/internal/platform/logger"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, version, create")
		name    = flag.String("name", "", "Name for 'create' command")
	)
	flag.Parse()

	loadEnvFiles()

	log, err := logger.New(os.Getenv("LOG_LEVEL"), true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	dir := migrationsDir()

	if *command == "create" {
		if *name == "" {
			log.Fatal("name is required for 'create' command")
		}
		if err := goose.Create(nil, dir, *name, "sql"); err != nil {
			log.Fatal("create migration failed", logger.Error(err))
		}
		log.Info("migration created", logger.String("name", *name))
		return
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn())
	if err != nil {
		log.Fatal("connect to database failed", logger.Error(err))
	}
	defer pool.Close()

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("set dialect failed", logger.Error(err))
	}

	switch *command {
	case "up":
		if err := goose.UpContext(ctx, db, dir); err != nil {
			log.Fatal("run migrations failed", logger.Error(err))
		}
		log.Info("migrations applied", logger.String("dir", dir))
	case "down":
		if err := goose.DownContext(ctx, db, dir); err != nil {
			log.Fatal("roll back migration failed", logger.Error(err))
		}
		log.Info("migration rolled back", logger.String("dir", dir))
	case "status":
		if err := goose.StatusContext(ctx, db, dir); err != nil {
			log.Fatal("check migration status failed", logger.Error(err))
		}
	case "version":
		v, err := goose.GetDBVersionContext(ctx, db)
		if err != nil {
			log.Fatal("read version failed", logger.Error(err))
		}
		log.Info("database version", logger.Int64("version", v))
	default:
		log.Fatalf("unknown command: %s. Use: up, down, status, version, create", *command)
	}
}
