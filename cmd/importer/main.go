package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"aquashop/internal/config"
	"aquashop/internal/db"
	"aquashop/internal/importer"
	"aquashop/internal/logger"
	"aquashop/internal/repository/category"
	"aquashop/internal/repository/content"
	"aquashop/internal/repository/product"
	categorysvc "aquashop/internal/service/category"
	"github.com/joho/godotenv"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to a product or category CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(logger.Options{
		ServiceName: "aquashop-importer",
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
	})

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		log.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("open file")
	}
	defer f.Close()

	kind, err := importer.DetectKind(f)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("detect csv kind")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Fatal().Err(err).Msg("rewind file")
	}
	log.Info().Str("file", filePath).Str("kind", string(kind)).Msg("importing")

	imp := importer.NewCSVImporter(f,
		product.NewPostgres(pool, &log),
		categorysvc.New(category.NewPostgres(pool, &log)),
		content.NewPostgres(pool, &log),
	)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}

	fmt.Printf("Imported %d %s from %s in %s\n", count, kind, filePath, time.Since(start).Truncate(time.Millisecond))
}
