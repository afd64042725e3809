package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sumgen/internal/checkpoints"
	"sumgen/internal/config"
	"sumgen/internal/dataset"
	"sumgen/internal/output"
	"sumgen/internal/pipeline"
	"sumgen/internal/seq2seq"
	"sumgen/internal/summarizer"
	"syscall"
	"time"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	selection, dataPath, ok := parseArgs()
	if !ok {
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)

		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		sig := <-c
		log.InfoContext(ctx, "Shutdown signal is received",
			"signal", sig.String())
		cancel()
	}()

	if err := run(ctx, selection, dataPath, cfg, log); err != nil {
		log.ErrorContext(ctx, "Failed to summarize dataset",
			"error", err,
			"uptimeSeconds", time.Since(start).Seconds())

		os.Exit(1)
	}

	log.InfoContext(ctx, "Exiting...",
		"uptimeSeconds", time.Since(start).Seconds())
}

func parseArgs() (checkpoints.Selection, string, bool) {
	modelAlias := flag.String("model", "",
		"checkpoint alias ("+strings.Join(checkpoints.Aliases(), ", ")+")")
	modelPath := flag.String("model_name_or_path", "",
		"checkpoint identifier on the Hugging Face hub")
	dataPath := flag.String("data_path", "",
		"path to a JSONL dataset with one document per line")
	flag.Parse()

	selection, err := checkpoints.Select(*modelAlias, *modelPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()

		return checkpoints.Selection{}, "", false
	}

	trimmed := strings.TrimSpace(*dataPath)
	if trimmed == "" {
		fmt.Fprintln(os.Stderr, "data_path is required")
		flag.Usage()

		return checkpoints.Selection{}, "", false
	}

	return selection, trimmed, true
}

func run(
	ctx context.Context,
	selection checkpoints.Selection,
	dataPath string,
	cfg config.Config,
	log *slog.Logger,
) (retErr error) {
	records, err := dataset.Load(dataPath)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "Dataset is loaded",
		"dataPath", dataPath,
		"records", len(records),
		"batchSize", cfg.BatchSize)

	s, closeEngine, err := initSummarizer(ctx, selection, cfg, log)
	if err != nil {
		return err
	}
	defer closeEngine()

	outPath := output.Filename(selection.Label, dataPath)
	writer, err := output.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := writer.Close(); closeErr != nil && retErr == nil {
			retErr = closeErr
		}
	}()
	log.InfoContext(ctx, "Predictions file is created",
		"path", outPath)

	written, err := pipeline.New(s, cfg.BatchSize, log).Run(ctx, records, writer)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "Summaries are written",
		"path", outPath,
		"records", written)

	return nil
}

func initSummarizer(
	ctx context.Context,
	selection checkpoints.Selection,
	cfg config.Config,
	log *slog.Logger,
) (summarizer.Summarizer, func(), error) {
	if cfg.Engine == config.EngineOpenAI {
		s, err := summarizer.NewOpenAISummarizer(summarizer.OpenAIConfig{
			APIKey:          cfg.OpenAIAPIKey,
			BaseURL:         cfg.OpenAIBaseURL,
			Model:           selection.ModelID,
			MaxOutputTokens: cfg.OpenAIMaxOutputTokens,
			MaxInputTokens:  cfg.OpenAIMaxInputTokens,
			Encoding:        cfg.OpenAIEncoding,
			RequestInterval: cfg.OpenAIRequestInterval,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize OpenAI summarizer: %w", err)
		}
		log.InfoContext(ctx, "OpenAI summarizer is initialized",
			"model", selection.ModelID)

		return s, func() {}, nil
	}

	engine, err := seq2seq.Load(ctx, selection.ModelID, seq2seq.Options{
		MaxNewTokens: cfg.MaxNewTokens,
		MinNewTokens: cfg.MinNewTokens,
		Temperature:  cfg.Temperature,
		TopK:         cfg.TopK,
		Progress:     cfg.DownloadProgress,
	}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("load checkpoint %s: %w", selection.ModelID, err)
	}

	closeEngine := func() {
		if err := engine.Close(); err != nil {
			log.WarnContext(ctx, "Failed to close engine",
				"error", err)
		}
	}

	return summarizer.NewModelSummarizer(engine), closeEngine, nil
}
