package moralis

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DailyBurnTotal sums all transfers into the dead address over the half-open
// UTC interval [dayStart, dayEnd), paging through the wallet transfers
// endpoint in strict cursor order.
//
// The wallet endpoint is used (not the per-contract one) because only it
// supports filtering by contract, which keeps responses small. Each page is
// filtered to events whose recipient is the dead address (case-insensitive),
// deduplicated by transfer identity, and events with a missing amount are
// skipped. Pagination stops on an empty cursor, a repeated cursor (stall
// protection against a buggy upstream), or the page cap.
func (c *Client) DailyBurnTotal(ctx context.Context, dayStart, dayEnd time.Time) (*big.Int, error) {
	endpoint := "/" + c.cfg.DeadAddress + "/erc20/transfers"

	total := new(big.Int)
	seen := make(map[string]struct{})
	cursor := ""
	pages := 0

	for {
		params := url.Values{
			"chain":              {c.cfg.Chain},
			"from_date":          {dayStart.UTC().Format(time.RFC3339)},
			"to_date":            {dayEnd.UTC().Format(time.RFC3339)},
			"limit":              {strconv.Itoa(c.cfg.PageLimit)},
			"contract_addresses": {c.cfg.TokenAddress},
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var page transfersPage
		if err := c.getJSON(ctx, endpoint, params, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Result {
			if !strings.EqualFold(item.ToAddress, c.cfg.DeadAddress) {
				continue
			}
			if key, ok := item.identity(); ok {
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			if item.Value == "" {
				continue
			}
			v, ok := new(big.Int).SetString(item.Value, 10)
			if !ok {
				return nil, fmt.Errorf("moralis: malformed transfer value %q", item.Value)
			}
			total.Add(total, v)
		}

		prev := cursor
		cursor = page.Cursor
		pages++

		if cursor == "" {
			break
		}
		if prev != "" && cursor == prev {
			slog.Warn("Moralis cursor stalled, stopping pagination",
				slog.String("endpoint", endpoint),
				slog.Int("pages", pages))
			break
		}
		if pages >= c.cfg.MaxPages {
			slog.Warn("Moralis page cap reached, stopping pagination",
				slog.String("endpoint", endpoint),
				slog.Int("pages", pages))
			break
		}
	}

	c.metrics.ObserveDayFetch()
	return total, nil
}
