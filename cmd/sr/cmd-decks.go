package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"

	"github.com/srnotes/sr/go/deck"
	"github.com/srnotes/sr/go/server"
)

type cmdDecks struct {
	Port  int       `long:"port" description:"Port to serve on (default review_port + 2)"`
	Print bool      `long:"print" description:"Print the deck tree to stdout and exit"`
	Log   LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
}

func (cmd cmdDecks) Execute(_ []string) error {
	initLog(cmd.Log)

	var a, err = openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if cmd.Print {
		return printDeckTree(a)
	}

	var ctx, stop = signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var port = cmd.Port
	if port == 0 {
		port = a.settings.ReviewPort + 2
	}
	srv, err := server.New(port)
	if err != nil {
		return err
	}
	server.RegisterDecksAPIs(srv.Router, a.cat, a.settings, a.dir)

	fmt.Printf("Decks server running at %s\n", srv.URL())
	fmt.Println("Press Ctrl+C to stop")
	return srv.Serve(ctx)
}

func printDeckTree(a *app) error {
	var stats, err = a.cat.SourceStats(a.cat.DB(), a.cat.Now())
	if err != nil {
		return err
	}
	var root = deck.Build(stats)
	if len(root.Children) == 0 {
		fmt.Println("No decks. Run `sr scan` first.")
		return nil
	}

	color.New(color.Bold).Println(root.Path)
	printDeckNodes(root.Children, 1)
	return nil
}

func printDeckNodes(nodes []*deck.Node, depth int) {
	var indent = strings.Repeat("  ", depth)
	for _, n := range nodes {
		if n.Due > 0 {
			color.Yellow("%s%s  (%d due / %d active / %d total)", indent, n.Name, n.Due, n.Active, n.Total)
		} else {
			fmt.Printf("%s%s  (%d active / %d total)\n", indent, n.Name, n.Active, n.Total)
		}
		printDeckNodes(n.Children, depth+1)
	}
}
