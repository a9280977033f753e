// Command remix runs a batch of presets against one photo from the command
// line and writes the results to a directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kiranshivaraju/remixer/internal/ai"
	"github.com/kiranshivaraju/remixer/internal/batch"
	"github.com/kiranshivaraju/remixer/internal/config"
	"github.com/kiranshivaraju/remixer/internal/export"
	"github.com/kiranshivaraju/remixer/internal/media"
	"github.com/kiranshivaraju/remixer/internal/preset"
	"github.com/kiranshivaraju/remixer/internal/results"
	"github.com/kiranshivaraju/remixer/internal/storage"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

const maxSourceDimension = 2048

type options struct {
	Image       string
	Presets     string
	PresetsFile string
	Aspect      string
	Out         string
	Format      string
	Archive     string
	List        bool
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(os.Args[1:], os.Stdout); err != nil {
		slog.Error("remix failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	catalog, err := preset.Load(opts.PresetsFile)
	if err != nil {
		return fmt.Errorf("load presets: %w", err)
	}
	if opts.List {
		for _, p := range catalog.All() {
			fmt.Fprintf(stdout, "%3d  %-24s %s\n", p.ID, p.Name, strings.Join(p.Tags, ", "))
		}
		return nil
	}

	aiCfg, err := config.LoadAI()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	transformer, err := ai.NewTransformer(context.Background(), aiCfg)
	if err != nil {
		return fmt.Errorf("create image transformer: %w", err)
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	written, err := remix(context.Background(), opts, catalog, transformer, aiCfg.InferenceTimeout, interrupts)
	for _, path := range written {
		fmt.Fprintln(stdout, path)
	}
	return err
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("remix", flag.ContinueOnError)
	fs.StringVar(&opts.Image, "image", "", "path to the source photo (required)")
	fs.StringVar(&opts.Presets, "presets", "", "comma-separated preset IDs")
	fs.StringVar(&opts.PresetsFile, "presets-file", os.Getenv("PRESETS_FILE"), "YAML preset catalog (default: builtin)")
	fs.StringVar(&opts.Aspect, "aspect", string(models.DefaultAspectRatio), "aspect ratio: 1:1, 3:4, 4:3, 9:16, 16:9 or Free")
	fs.StringVar(&opts.Out, "out", "remixes", "output directory")
	fs.StringVar(&opts.Format, "format", config.ExportFormatPNG, "output format: png or webp")
	fs.StringVar(&opts.Archive, "archive", export.DefaultArchiveName, "zip archive name; empty to skip")
	fs.BoolVar(&opts.List, "list", false, "list presets and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if opts.List {
		return opts, nil
	}
	if opts.Image == "" {
		return options{}, errors.New("-image is required")
	}
	if opts.Presets == "" {
		return options{}, errors.New("-presets is required")
	}
	return opts, nil
}

func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid preset ID %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// remix runs one batch and writes every result. A signal on interrupts
// cancels the batch: the job in flight finishes but its output is dropped.
// Results completed before a failure or cancellation are still written.
func remix(ctx context.Context, opts options, catalog *preset.Catalog, t models.ImageTransformer, timeout time.Duration, interrupts <-chan os.Signal) ([]string, error) {
	ratio, err := models.ParseAspectRatio(opts.Aspect)
	if err != nil {
		return nil, err
	}
	ids, err := parseIDs(opts.Presets)
	if err != nil {
		return nil, err
	}
	presets, err := catalog.Resolve(ids)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(opts.Image)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	source, err := media.FromBytes(data, "")
	if err != nil {
		return nil, err
	}
	if source, err = media.Normalize(source, maxSourceDimension); err != nil {
		return nil, err
	}

	store, err := storage.NewFileStore(opts.Out)
	if err != nil {
		return nil, err
	}

	collection := results.NewMemory()
	ctrl := batch.New(ctx, t, collection, batch.Options{
		Timeout: timeout,
		Observer: batch.ObserverFunc(func(job models.Job) {
			slog.Info("job", "preset", job.Preset.Name, "status", job.Status)
		}),
	})
	if !ctrl.StartBatch(source, presets, ratio) {
		return nil, errors.New("no presets selected")
	}

	finished := make(chan error, 1)
	go func() { finished <- ctrl.Wait(ctx) }()

wait:
	for {
		select {
		case sig := <-interrupts:
			slog.Warn("cancelling batch", "signal", sig.String())
			ctrl.Cancel()
		case err := <-finished:
			if err != nil {
				return nil, err
			}
			break wait
		}
	}

	written, err := writeResults(ctx, store, collection, opts)
	if err != nil {
		return written, err
	}
	if msg := ctrl.Snapshot().Error; msg != "" {
		return written, errors.New(msg)
	}
	return written, nil
}

func writeResults(ctx context.Context, store *storage.FileStore, collection results.Collection, opts options) ([]string, error) {
	list, err := collection.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	entries, err := export.Convert(export.Entries(list), opts.Format)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, e := range entries {
		path, err := store.Save(ctx, e.Filename, e.Data)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if opts.Archive != "" {
		archive, err := export.Archive(entries)
		if err != nil {
			return written, err
		}
		path, err := store.Save(ctx, opts.Archive, archive)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	slog.Info("results written", "dir", store.Dir(), "files", len(entries))
	return written, nil
}
