package usecase

import (
	"time"

	"AXII/internal/domain/models"
)

// Compose maps the three signal results onto an Artist record. It is pure:
// the same inputs always give the same record.
func Compose(name string, news, social, market models.SignalResult, at time.Time) models.Artist {
	a := models.Artist{
		Name: name,
		Scores: models.Scores{
			CCI:  scoreOf(news),
			EES:  scoreOf(social),
			RSMI: scoreOf(market),
		},
		Signals: models.Signals{
			CCI:  statusOf(news),
			EES:  statusOf(social),
			RSMI: statusOf(market),
		},
		FetchedAt: at,
	}
	if n := len(news.Evidence) + len(market.Evidence); n > 0 {
		a.Evidence = make([]models.Evidence, 0, n)
		a.Evidence = append(a.Evidence, news.Evidence...)
		a.Evidence = append(a.Evidence, market.Evidence...)
	}
	return a
}

func scoreOf(r models.SignalResult) int {
	if !r.Succeeded {
		return models.FallbackScore
	}
	return models.ClampScore(r.Score)
}

func statusOf(r models.SignalResult) models.SignalStatus {
	st := models.SignalStatus{Succeeded: r.Succeeded, Synthetic: r.Synthetic, Error: r.Err}
	if !r.Succeeded && st.Error == "" {
		st.Error = "signal unavailable"
	}
	return st
}
