package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mikey/inbox-intel/internal/adapters/mime"
	"github.com/mikey/inbox-intel/internal/core"
	"github.com/mikey/inbox-intel/internal/di"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run reads every message, rebuilds threads and prints the enriched
// messages as a JSON array on stdout
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	reader *mime.Reader,
	service *core.InboxService,
	cacheRepo core.CacheRepository,
) error {
	defer logger.Sync()

	// Stop the cache if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		defer stopper.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	msgs, err := readMessages(reader, flags.Files, logger)
	if err != nil {
		return err
	}
	mime.AssignThreads(msgs)

	raws := make([]core.RawMessage, 0, len(msgs))
	for _, msg := range msgs {
		raws = append(raws, msg.Raw)
	}

	enriched := service.Digest(ctx, raws)

	enc := json.NewEncoder(os.Stdout)
	if !flags.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(enriched)
}

// readMessages parses each file, or stdin when no file is given. Files
// that cannot be parsed are skipped.
func readMessages(reader *mime.Reader, files []string, logger *zap.Logger) ([]*mime.Message, error) {
	if len(files) == 0 {
		logger.Info("Reading message from stdin")
		msg, err := reader.Read("stdin", os.Stdin)
		if err != nil {
			return nil, err
		}
		return []*mime.Message{msg}, nil
	}

	msgs := make([]*mime.Message, 0, len(files))
	for _, path := range files {
		msg, err := reader.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable message", zap.String("file", path), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}

	if len(msgs) == 0 {
		return nil, errors.New("no readable messages")
	}
	logger.Info("Read messages", zap.Int("count", len(msgs)), zap.Int("skipped", len(files)-len(msgs)))
	return msgs, nil
}
