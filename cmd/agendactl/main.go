// agendactl loads agenda files into the search store and manages the
// per-edition full-text indexes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/config"
	dbRedis "github.com/confbase/confbase/internal/db/redis"
	logpkg "github.com/confbase/confbase/internal/logger"
	"github.com/confbase/confbase/internal/pipeline"
	submissionrepo "github.com/confbase/confbase/internal/repository/submission"
	"github.com/confbase/confbase/internal/version"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 || os.Args[1] != "load" {
		fmt.Fprintln(os.Stderr, "usage: agendactl load [--replace] --edition <name> <file>")
		os.Exit(2)
	}

	loadCmd := flag.NewFlagSet("load", flag.ExitOnError)
	edition := loadCmd.String("edition", "", "edition name (default: file basename)")
	replace := loadCmd.Bool("replace", false, "drop and recreate the edition index before loading")
	_ = loadCmd.Parse(os.Args[2:])

	if loadCmd.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: agendactl load [--replace] --edition <name> <file>")
		os.Exit(2)
	}
	path := loadCmd.Arg(0)
	if *edition == "" {
		*edition = pipeline.Edition(path)
	}

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Loading agenda",
		zap.String("version", version.Version),
		zap.String("edition", *edition),
		zap.String("file", path),
	)

	subs, err := pipeline.ParseFile(path)
	if err != nil {
		logger.Fatal("Failed to parse agenda file", zap.Error(err))
	}
	if len(subs) == 0 {
		logger.Warn("Agenda file has no submissions, nothing to do")
		return
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	repo := submissionrepo.New(store, cfg.Search.MaxResults)
	if *replace {
		if err := repo.RebuildIndex(ctx, *edition); err != nil {
			logger.Fatal("Failed to rebuild index", zap.Error(err))
		}
	} else if err := repo.EnsureIndex(ctx, *edition); err != nil {
		logger.Fatal("Failed to ensure index", zap.Error(err))
	}
	if err := repo.PutMulti(ctx, *edition, subs); err != nil {
		logger.Fatal("Failed to store submissions", zap.Error(err))
	}

	logger.Info("Agenda loaded",
		zap.String("edition", *edition),
		zap.Int("submissions", len(subs)),
		zap.String("index", submissionrepo.IndexName(*edition)),
	)
}
