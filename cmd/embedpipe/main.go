// embedpipe computes the offline recommendation artifacts: embedding records
// and neighbor indexes for every agenda file.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/config"
	"github.com/confbase/confbase/internal/domain"
	logpkg "github.com/confbase/confbase/internal/logger"
	"github.com/confbase/confbase/internal/metrics"
	"github.com/confbase/confbase/internal/pipeline"
	"github.com/confbase/confbase/internal/recommend"
	"github.com/confbase/confbase/internal/repository/recstore"
	openaiEmb "github.com/confbase/confbase/internal/transport/openai"
	"github.com/confbase/confbase/internal/version"
)

func main() {
	_ = godotenv.Load()

	option := flag.String("option", recommend.OptionLSA, "embedding mode: lsa or sent_embed")
	agendaDir := flag.String("agenda", "", "agenda directory (default from config)")
	outDir := flag.String("out", "", "output directory (default from config)")
	flag.Parse()

	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	if *agendaDir == "" {
		*agendaDir = cfg.Recommend.AgendaDir
	}
	if *outDir == "" {
		*outDir = cfg.Recommend.EmbeddingsDir
	}

	logger.Info("Starting embedding pipeline",
		zap.String("version", version.Version),
		zap.String("option", *option),
		zap.String("agenda_dir", *agendaDir),
		zap.String("out_dir", *outDir),
	)

	var embedder domain.BatchEmbedder
	if *option == recommend.OptionSentEmbed {
		metrics.RegisterEmbeddingMetrics()
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		})
	}

	calc := recommend.NewCalculator(embedder, logger)
	runner := pipeline.NewRunner(calc, recstore.New(*outDir), logger)

	done, err := runner.Run(context.Background(), *agendaDir, *option)
	if err != nil {
		logger.Error("Pipeline failed", zap.Error(err), zap.Int("editions_done", done))
		os.Exit(1)
	}
	logger.Info("Pipeline finished", zap.Int("editions", done))
}
