package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	_ "github.com/srnotes/sr/go/adapter/mnmd"
	_ "github.com/srnotes/sr/go/adapter/qa"
	_ "github.com/srnotes/sr/go/scheduler/fsrs"
	_ "github.com/srnotes/sr/go/scheduler/sm2"
)

func main() {
	var parser = flags.NewParser(nil, flags.HelpFlag|flags.PassDoubleDash)

	_, _ = parser.AddCommand("scan", "Scan sources and synchronize the catalog", `
Scan the given files and directories for cards and reconcile them with the
catalog: new cards are added, edited cards are replaced, and cards no longer
present are deleted.
`, &cmdScan{})

	_, _ = parser.AddCommand("review", "Synchronize and start a review session", `
Synchronize the given paths, then serve the review UI on the configured port
until interrupted. With no paths, review the whole catalog without syncing.
`, &cmdReview{})

	_, _ = parser.AddCommand("status", "Print catalog statistics", `
Print card and review counts for the catalog, and active card counts per
source.
`, &cmdStatus{})

	_, _ = parser.AddCommand("browse", "Serve the card browser UI", `
Serve the card browser on the port above the review port, until interrupted.
`, &cmdBrowse{})

	_, _ = parser.AddCommand("decks", "Serve the deck tree UI", `
Serve the deck browser on the second port above the review port, until
interrupted. Reviews launched from a deck are scoped to its sources.
`, &cmdDecks{})

	if _, err := parser.Parse(); err != nil {
		if flagErr, ok := err.(*flags.Error); ok && flagErr.Type == flags.ErrHelp {
			fmt.Println(flagErr.Message)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
