package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"

	"github.com/srnotes/sr/go/catalog"
	"github.com/srnotes/sr/go/review"
	"github.com/srnotes/sr/go/server"
)

type cmdReview struct {
	Log  LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Tag  string    `long:"tag" description:"Review only cards carrying this tag"`
	Flag string    `long:"flag" description:"Review only cards carrying this flag"`
}

func (cmd cmdReview) Execute(args []string) error {
	initLog(cmd.Log)

	var a, err = openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sched = a.openScheduler()
	if sched != nil {
		defer sched.Close()
	}

	var filters = catalog.ReviewFilters{Tag: cmd.Tag, Flag: cmd.Flag}
	if len(args) > 0 {
		stats, err := a.syncPaths(ctx, args, sched)
		if err != nil {
			return err
		}
		color.Green("Synced: %s", stats)

		if abs, err := filepath.Abs(args[0]); err == nil {
			filters.PathPrefix = abs
		}
	}

	session, err := review.New(review.Config{
		Catalog:   a.cat,
		Scheduler: sched,
		Filters:   filters,
	})
	if err != nil {
		return err
	}

	srv, err := server.New(a.settings.ReviewPort)
	if err != nil {
		return err
	}
	server.RegisterReviewAPIs(srv.Router, session, a.cat, a.settings)

	fmt.Printf("Review server running at %s\n", srv.URL())
	fmt.Println("Press Ctrl+C to stop")

	if err = srv.Serve(ctx); err != nil {
		return err
	}
	fmt.Println("\nSession ended.")
	fmt.Printf("  Reviewed: %d cards\n", session.Reviewed())
	return nil
}
