package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"AXII/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintTableMarksFallbackAndSynthetic(t *testing.T) {
	var buf bytes.Buffer
	err := printTable(&buf, []models.Artist{{
		Name:   "Cao Fei",
		Scores: models.Scores{CCI: 50, EES: 71, RSMI: 27},
		Signals: models.Signals{
			CCI:  models.SignalStatus{Error: "missing news API key"},
			EES:  models.SignalStatus{Succeeded: true, Synthetic: true},
			RSMI: models.SignalStatus{Succeeded: true},
		},
		FetchedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	out := buf.String()
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, []string{"ARTIST", "CCI", "EES", "RSMI", "FETCHED"}, cells(lines[1]))
	assert.Equal(t, []string{"Cao Fei", "50*", "71~", "27", "2024-06-01 10:00:00"}, cells(lines[3]))
	assert.Contains(t, out, "Cao Fei CCI: missing news API key")
}

// cells splits one rendered table row on its column separators.
func cells(line string) []string {
	var out []string
	for _, c := range strings.Split(line, "│") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "axii dev\n", buf.String())
}
