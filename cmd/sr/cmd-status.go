package main

import (
	"fmt"

	"github.com/fatih/color"
)

type cmdStatus struct {
	Log LogConfig `group:"Logging" namespace:"log" env-namespace:"LOG"`
}

func (cmd cmdStatus) Execute(_ []string) error {
	initLog(cmd.Log)

	var a, err = openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	agg, err := a.cat.LoadAggregates(a.cat.DB(), a.cat.Now())
	if err != nil {
		return err
	}
	sources, err := a.cat.ActiveSourceCounts(a.cat.DB())
	if err != nil {
		return err
	}

	var bold = color.New(color.Bold)
	bold.Println("Catalog status")
	fmt.Printf("  Active cards:    %d (%d gradable)\n", agg.Active, agg.ActiveGradable)
	color.Yellow("  Due now:         %d", agg.DueNow)
	fmt.Printf("  Reviewed today:  %d\n", agg.ReviewedToday)
	fmt.Printf("  Total reviews:   %d\n", agg.TotalReviews)

	if len(sources) > 0 {
		bold.Println("Sources")
		for _, src := range sources {
			fmt.Printf("  %5d  %s\n", src.Count, src.SourcePath)
		}
	}
	return nil
}
