package signals

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"AXII/internal/domain/models"
	domsvc "AXII/internal/domain/service"
	"AXII/internal/service/auction"
	applogger "AXII/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// AuctionCounter returns the number of search results an auction house lists for artist.
type AuctionCounter interface {
	Count(ctx context.Context, h auction.House, artist string) (int, error)
}

// NormalizeMarket maps an auction record count onto [0,100]: five records per point, capped.
func NormalizeMarket(count int) int {
	return models.ClampScore(count / 5)
}

// MarketSignal scores auction-market activity (RSMI) from auction search pages.
type MarketSignal struct {
	counter AuctionCounter
	houses  []auction.House
	l       *applogger.Logger
}

func NewMarketSignal(counter AuctionCounter, houses []auction.House, l *applogger.Logger) *MarketSignal {
	return &MarketSignal{counter: counter, houses: houses, l: l}
}

func (s *MarketSignal) Name() string { return "market" }

// Fetch sums counts over the houses that answered. It falls back only when none did.
func (s *MarketSignal) Fetch(ctx context.Context, artist string, _ models.Credentials) models.SignalResult {
	if len(s.houses) == 0 {
		return models.Fallback("no auction houses configured")
	}

	counts := make([]int, len(s.houses))
	errs := make([]error, len(s.houses))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range s.houses {
		g.Go(func() error {
			counts[i], errs[i] = s.counter.Count(gctx, h, artist)
			return nil
		})
	}
	_ = g.Wait()

	total, answered := 0, 0
	evidence := make([]models.Evidence, 0, len(s.houses))
	var failures []string
	for i, h := range s.houses {
		if errs[i] != nil {
			failures = append(failures, errs[i].Error())
			continue
		}
		answered++
		total += counts[i]
		evidence = append(evidence, models.Evidence{
			Title:  fmt.Sprintf("%d results", counts[i]),
			URL:    h.SearchURLFor(artist),
			Source: h.Name,
		})
	}

	if answered == 0 {
		err := errors.New(strings.Join(failures, "; "))
		s.l.Warn("market signal fallback", applogger.String("artist", artist), applogger.Error(err))
		return models.Fallback(err.Error())
	}
	if len(failures) > 0 {
		s.l.Debug("market signal partial", applogger.String("artist", artist), applogger.Strings("failures", failures))
	}
	return models.Measured(NormalizeMarket(total), evidence)
}

var _ domsvc.SignalSource = (*MarketSignal)(nil)
