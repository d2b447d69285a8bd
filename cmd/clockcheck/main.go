package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/park285/Cheese-ChessClock/internal/clockclient"
	"github.com/park285/Cheese-ChessClock/pkg/clockdto"
)

var (
	okMark   = color.New(color.FgGreen, color.Bold).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
	dim      = color.New(color.FgHiBlack).SprintFunc()
	active   = color.New(color.FgYellow, color.Bold).SprintFunc()
)

func main() {
	baseURL := flag.String("url", envDefault("CLOCKD_URL", "http://localhost:8080"), "clockd base URL")
	preset := flag.String("preset", "", "create a match with this preset and watch it")
	watch := flag.Duration("watch", 10*time.Second, "how long to watch a created match")
	flag.Parse()

	client := clockclient.NewClient(*baseURL, clockclient.WithTimeout(8*time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	failed := false
	h, err := client.Health(ctx)
	if err != nil {
		fmt.Printf("%s /healthz: %v\n", failMark("FAIL"), err)
		os.Exit(1)
	}
	fmt.Printf("%s /healthz store=%s active=%d\n", okMark("OK"), h.Store, h.ActiveMatches)

	groups, err := client.Presets(ctx)
	if err != nil {
		failed = true
		fmt.Printf("%s /presets: %v\n", failMark("FAIL"), err)
	} else {
		fmt.Printf("%s /presets groups=%d\n", okMark("OK"), len(groups))
		for _, g := range groups {
			fmt.Printf("  %s %s\n", g.Title, dim(fmt.Sprintf("(%d presets)", len(g.Presets))))
			for _, p := range g.Presets {
				fmt.Printf("    %-22s %-8s %s\n", p.ID, p.Title, dim(p.TypeName))
			}
		}
	}

	if *preset != "" {
		if err := watchPreset(client, *preset, *watch); err != nil {
			failed = true
			fmt.Printf("%s watch: %v\n", failMark("FAIL"), err)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// watchPreset starts a match, presses the clock once and prints live frames.
func watchPreset(client *clockclient.Client, presetID string, d time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	st, err := client.CreateMatch(ctx, presetID)
	if err != nil {
		return err
	}
	fmt.Printf("%s match %s created\n", okMark("OK"), st.Code)
	if _, err := client.Tap(ctx, st.Code, 0); err != nil {
		return err
	}
	err = client.Watch(ctx, st.Code, func(st clockdto.MatchState) error {
		fmt.Print("\r")
		for i, p := range st.Players {
			face := p.Display
			if i == st.Active {
				face = active(face)
			}
			fmt.Printf("%s %s  ", p.Name, face)
		}
		fmt.Print(dim(st.Status))
		return nil
	})
	fmt.Println()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func envDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
