// streamwatch follows a running market cache over its /stream websocket and
// prints each snapshot update to the console.
// Usage: go run ./cmd/streamwatch --url http://localhost:5002 --markets
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rickgao/kalshi-tennis/internal/discovery"
	"github.com/rickgao/kalshi-tennis/internal/marketcache"
	"github.com/rickgao/kalshi-tennis/internal/model"
)

func main() {
	url := flag.String("url", "http://localhost:5002", "market cache base URL")
	markets := flag.Bool("markets", false, "fetch the snapshot on each update and summarize discovery")
	verbose := flag.Bool("verbose", false, "print full health JSON")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := marketcache.NewClient(*url)
	cfg := discovery.DefaultConfig()

	logger.Info("watching market cache - press Ctrl+C to stop", "url", *url)

	err := client.Watch(ctx, func(h model.Health) bool {
		if *verbose {
			data, _ := json.MarshalIndent(h, "", "  ")
			fmt.Printf("[HEALTH] %s\n", data)
		} else {
			fmt.Printf("[HEALTH] status=%s age=%.1fs polling=%v\n", h.Status, h.AgeSeconds, h.PollingActive)
		}

		if *markets && h.GeneratedAt != nil {
			printMarkets(ctx, client, cfg, logger)
		}
		return true
	})
	if err != nil {
		logger.Error("stream ended", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func printMarkets(ctx context.Context, client *marketcache.Client, cfg discovery.Config, logger *slog.Logger) {
	snap, err := client.Latest(ctx)
	if err != nil {
		logger.Warn("fetch snapshot", "error", err)
		return
	}

	accepted, rejected := discovery.Partition(discovery.PairsFromSnapshot(snap), cfg, time.Now())
	reasons := make(map[string]int)
	for _, r := range rejected {
		reasons[r.Reason]++
	}

	fmt.Printf("[MARKETS] listings=%d events=%d accepted=%d rejected=%d\n",
		len(snap.Listings), len(snap.EventTiming), len(accepted), len(rejected))
	for reason, n := range reasons {
		fmt.Printf("          %-28s %d\n", reason, n)
	}
	for _, a := range accepted {
		start := "-"
		if a.Start != nil {
			start = a.Start.Time.Format("01-02 15:04")
			if a.Start.Estimated {
				start += "*"
			}
		}
		fmt.Printf("  %-36s %-12s vol=%-8.0f %s\n", a.Listing.Ticker, start, a.Volume, a.Listing.Title)
	}
}
