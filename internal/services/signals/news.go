package signals

import (
	"context"
	"time"

	"AXII/internal/domain/models"
	domsvc "AXII/internal/domain/service"
	"AXII/internal/service/newsapi"
	applogger "AXII/pkg/logger"
)

// NewsQuerier is the mention-count provider NewsSignal depends on.
type NewsQuerier interface {
	Query(ctx context.Context, artist, apiKey string, from time.Time) (*newsapi.Result, error)
}

// NormalizeNews maps a mention count onto [0,100]: two mentions per point, capped.
func NormalizeNews(totalResults int) int {
	return models.ClampScore(totalResults / 2)
}

// NewsSignal scores media visibility (CCI) from recent news mentions.
type NewsSignal struct {
	client      NewsQuerier
	defaultKey  string
	lookback    time.Duration
	maxEvidence int
	now         func() time.Time
	l           *applogger.Logger
}

type NewsOption func(*NewsSignal)

// WithLookback sets how far back mentions are counted. Zero means no bound.
func WithLookback(d time.Duration) NewsOption {
	return func(s *NewsSignal) { s.lookback = d }
}

// WithMaxEvidence bounds the number of articles kept as evidence.
func WithMaxEvidence(n int) NewsOption {
	return func(s *NewsSignal) {
		if n >= 0 {
			s.maxEvidence = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) NewsOption {
	return func(s *NewsSignal) { s.now = now }
}

func NewNewsSignal(client NewsQuerier, defaultKey string, l *applogger.Logger, opts ...NewsOption) *NewsSignal {
	s := &NewsSignal{
		client:      client,
		defaultKey:  defaultKey,
		lookback:    30 * 24 * time.Hour,
		maxEvidence: 5,
		now:         time.Now,
		l:           l,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *NewsSignal) Name() string { return "news" }

func (s *NewsSignal) Fetch(ctx context.Context, artist string, creds models.Credentials) models.SignalResult {
	key := creds.NewsAPIKey
	if key == "" {
		key = s.defaultKey
	}
	var from time.Time
	if s.lookback > 0 {
		from = s.now().Add(-s.lookback)
	}

	res, err := s.client.Query(ctx, artist, key, from)
	if err != nil {
		s.l.Warn("news signal fallback", applogger.String("artist", artist), applogger.Error(err))
		return models.Fallback(err.Error())
	}

	evidence := make([]models.Evidence, 0, min(len(res.Articles), s.maxEvidence))
	for _, a := range res.Articles {
		if len(evidence) >= s.maxEvidence {
			break
		}
		if a.URL == "" {
			continue
		}
		evidence = append(evidence, models.Evidence{Title: a.Title, URL: a.URL, Source: a.Source.Name})
	}
	return models.Measured(NormalizeNews(res.TotalResults), evidence)
}

var _ domsvc.SignalSource = (*NewsSignal)(nil)
