package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/config"
	"github.com/srnotes/sr/go/scanner"
	"github.com/srnotes/sr/go/scheduler"
	"github.com/srnotes/sr/go/syncer"
)

// app bundles the resolved data directory, settings, and open catalog that
// every command starts from.
type app struct {
	dir      string
	settings config.Settings
	cat      *catalog.Catalog
}

func openApp() (*app, error) {
	var dir, err = config.EnsureDir()
	if err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings(dir)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Open(filepath.Join(dir, "sr.db"), nil)
	if err != nil {
		return nil, err
	}
	return &app{dir: dir, settings: settings, cat: cat}, nil
}

func (a *app) Close() error { return a.cat.Close() }

// openScheduler opens the configured scheduling policy. A nil scheduler is
// returned on failure so syncing and reviewing still work without one.
func (a *app) openScheduler() scheduler.Scheduler {
	var sched, err = scheduler.Open(a.settings.Scheduler, a.dir, nil)
	if err != nil {
		fmt.Printf("Warning: scheduler %q unavailable: %v\n", a.settings.Scheduler, err)
		return nil
	}
	return sched
}

// syncPaths scans the given paths and reconciles the catalog with what was
// found.
func (a *app) syncPaths(ctx context.Context, paths []string, sched scheduler.Scheduler) (syncer.Stats, error) {
	var sources = scanner.Scan(paths, nil)
	return syncer.Sync(ctx, a.cat, sources, paths, sched)
}
