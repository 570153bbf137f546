package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/broady/provider/providergen"
)

type CLI struct {
	Version VersionCmd `cmd:"" help:"Print version information."`
	Gen     GenCmd     `cmd:"" help:"Generate Go provider clients from a declaration file."`
	Check   CheckCmd   `cmd:"" help:"Validate a declaration file without generating files."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

type GenCmd struct {
	Schema  string `arg:"" help:"Declaration file (.provider DSL or .yaml schema)."`
	Out     string `help:"Output directory for generated files." short:"o" default:"."`
	Package string `help:"Package name for generated files." short:"p"`
	Format  string `help:"Declaration format (dsl or yaml); detected from the file extension by default." short:"f"`
	Watch   bool   `help:"Watch the declaration file and regenerate on change." short:"w"`
}

func (c *GenCmd) Run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := &providergen.Config{
		Source:  c.Schema,
		Format:  c.Format,
		OutDir:  c.Out,
		Package: c.Package,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := providergen.Generate(ctx, cfg); err != nil {
		if !c.Watch {
			return err
		}
		// In watch mode a broken declaration is not fatal; report and wait
		// for the next edit.
		logger.Error("generation failed", slog.String("schema", c.Schema), slog.Any("error", err))
	} else {
		logger.Info("generated", slog.String("schema", c.Schema), slog.String("out", c.Out))
	}

	if !c.Watch {
		return nil
	}
	return watch(ctx, logger, c.Schema, cfg)
}

// watch regenerates whenever the declaration file changes. Editors often
// replace the file on save, so the parent directory is watched and events
// are filtered by name.
func watch(ctx context.Context, logger *slog.Logger, schema string, cfg *providergen.Config) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(schema)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching", slog.String("schema", schema))

	target := filepath.Clean(schema)
	var debounce *time.Timer
	regen := func() {
		if err := providergen.Generate(ctx, cfg); err != nil {
			logger.Error("generation failed", slog.Any("error", err))
			return
		}
		logger.Info("regenerated", slog.String("schema", schema))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Coalesce bursts of events from a single save.
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, regen)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", slog.Any("error", err))
		}
	}
}

type CheckCmd struct {
	Schema string `arg:"" help:"Declaration file to validate."`
	Format string `help:"Declaration format (dsl or yaml); detected from the file extension by default." short:"f"`
}

func (c *CheckCmd) Run() error {
	return providergen.Check(&providergen.Config{
		Source: c.Schema,
		Format: c.Format,
	})
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("providergen"),
		kong.Description("Generate typed Go HTTP clients from declarative endpoint tables."),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
