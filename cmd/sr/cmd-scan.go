package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
)

type cmdScan struct {
	Log LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
}

func (cmd cmdScan) Execute(args []string) error {
	initLog(cmd.Log)

	if len(args) == 0 {
		return fmt.Errorf("at least one file or directory to scan is required")
	}

	var a, err = openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var sched = a.openScheduler()
	if sched != nil {
		defer sched.Close()
	}

	stats, err := a.syncPaths(context.Background(), args, sched)
	if err != nil {
		return err
	}
	color.Green("Synced: %s", stats)
	return nil
}
