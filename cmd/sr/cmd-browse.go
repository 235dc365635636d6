package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/srnotes/sr/go/server"
)

type cmdBrowse struct {
	Port int       `long:"port" description:"Port to serve on (default review_port + 1)"`
	Log  LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
}

func (cmd cmdBrowse) Execute(_ []string) error {
	initLog(cmd.Log)

	var a, err = openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var port = cmd.Port
	if port == 0 {
		port = a.settings.ReviewPort + 1
	}
	srv, err := server.New(port)
	if err != nil {
		return err
	}
	server.RegisterBrowseAPIs(srv.Router, a.cat, a.settings)

	fmt.Printf("Browse server running at %s\n", srv.URL())
	fmt.Println("Press Ctrl+C to stop")
	return srv.Serve(ctx)
}
