package infra

import (
	"fmt"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner. Historical auto-fetch gets a loud
// warning: with it enabled an unpopulated cache will spend provider credits
// on every series request instead of requiring an explicit backfill.
func PrintBanner(cfg *Config) {
	color := ColorCyan
	fetchMode := "history served from cache only (backfill required for gaps)"
	if cfg.Cache.AllowHistoricalFetch {
		color = ColorYellow
		fetchMode = "HISTORICAL AUTO-FETCH ENABLED - missing days will spend provider credits"
	}

	fmt.Println()
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Printf("  %s %s\n", cfg.App.Name, cfg.App.Version)
	fmt.Printf("  chain:  %s\n", cfg.Moralis.Chain)
	fmt.Printf("  token:  %s\n", cfg.Token.Address)
	fmt.Printf("  sink:   %s\n", cfg.Token.DeadAddress)
	fmt.Printf("  %s%s%s\n", color, fetchMode, ColorReset)
	fmt.Printf("%s###########################################################%s\n", color, ColorReset)
	fmt.Println()
}
