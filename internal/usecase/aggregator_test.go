package usecase

import (
	"testing"
	"time"

	"AXII/internal/domain/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestComposeMapsSignalsOneToOne(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	news := models.Measured(42, []models.Evidence{{Title: "a", URL: "https://n/1"}})
	social := models.SignalResult{Score: 71, Succeeded: true, Synthetic: true}
	market := models.Measured(27, []models.Evidence{{Title: "137 results", URL: "https://p/"}})

	got := Compose("Cao Fei", news, social, market, at)

	want := models.Artist{
		Name:   "Cao Fei",
		Scores: models.Scores{CCI: 42, EES: 71, RSMI: 27},
		Signals: models.Signals{
			CCI:  models.SignalStatus{Succeeded: true},
			EES:  models.SignalStatus{Succeeded: true, Synthetic: true},
			RSMI: models.SignalStatus{Succeeded: true},
		},
		FetchedAt: at,
		Evidence: []models.Evidence{
			{Title: "a", URL: "https://n/1"},
			{Title: "137 results", URL: "https://p/"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Compose mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, got.Measured())
}

func TestComposeIsPure(t *testing.T) {
	at := time.Unix(1_700_000_000, 0).UTC()
	news := models.Fallback("boom")
	social := models.SignalResult{Score: 65, Succeeded: true, Synthetic: true}
	market := models.Measured(10, nil)

	a := Compose("x", news, social, market, at)
	b := Compose("x", news, social, market, at)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("Compose not deterministic:\n%s", diff)
	}
}

func TestComposeEnforcesRangeAndFallback(t *testing.T) {
	at := time.Now()
	a := Compose("x",
		models.SignalResult{Score: 3, Succeeded: false},
		models.SignalResult{Score: 250, Succeeded: true},
		models.SignalResult{Score: -4, Succeeded: true},
		at)

	assert.Equal(t, models.FallbackScore, a.Scores.CCI, "failed signal always uses the fallback")
	assert.Equal(t, 100, a.Scores.EES)
	assert.Equal(t, 0, a.Scores.RSMI)
	assert.Equal(t, "signal unavailable", a.Signals.CCI.Error)
	assert.False(t, a.Measured())
	assert.Nil(t, a.Evidence)
}

func TestBuildRadarChart(t *testing.T) {
	chart := BuildRadarChart([]models.Artist{
		{Name: "A", Scores: models.Scores{CCI: 1, EES: 2, RSMI: 3}},
		{Name: "B", Scores: models.Scores{CCI: 50, EES: 60, RSMI: 70}},
	})
	want := models.RadarChart{
		Axes: []string{"CCI", "EES", "RSMI"},
		Series: []models.RadarSeries{
			{Name: "A", Values: [3]int{1, 2, 3}},
			{Name: "B", Values: [3]int{50, 60, 70}},
		},
	}
	if diff := cmp.Diff(want, chart); diff != "" {
		t.Fatalf("chart mismatch (-want +got):\n%s", diff)
	}

	empty := BuildRadarChart(nil)
	assert.Len(t, empty.Axes, 3)
	assert.Empty(t, empty.Series)
}
