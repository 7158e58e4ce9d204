// Command backfill populates the daily burn cache for a historical day
// range. It is the administrative counterpart to the server's read-only cache
// policy: series requests refuse to fetch missing past days, this command
// fills them in explicitly.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"burnwatch/internal/app"
	"burnwatch/internal/domain"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: auto-resolve)")
	startFlag := flag.String("start", "", "first day to backfill (YYYY-MM-DD, required)")
	endFlag := flag.String("end", "", "last day to backfill (YYYY-MM-DD, default: yesterday)")
	flag.Parse()

	if *startFlag == "" {
		flag.Usage()
		os.Exit(2)
	}
	start, err := time.Parse(domain.DayFormat, *startFlag)
	if err != nil {
		slog.Error("Invalid -start day", slog.String("value", *startFlag), slog.Any("error", err))
		os.Exit(2)
	}

	end := time.Now().UTC().AddDate(0, 0, -1)
	if *endFlag != "" {
		end, err = time.Parse(domain.DayFormat, *endFlag)
		if err != nil {
			slog.Error("Invalid -end day", slog.String("value", *endFlag), slog.Any("error", err))
			os.Exit(2)
		}
	}

	application, err := app.Bootstrap(app.Options{ConfigPath: *configPath})
	if err != nil {
		slog.Error("Bootstrap failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Backfill starting",
		slog.String("start", start.Format(domain.DayFormat)),
		slog.String("end", end.Format(domain.DayFormat)))

	done, err := application.Service.BackfillRange(ctx, start, end)
	if err != nil {
		slog.Error("Backfill failed", slog.Int("days_completed", done), slog.Any("error", err))
		application.Close()
		os.Exit(1)
	}
	slog.Info("Backfill complete", slog.Int("days", done))
}
