package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"AXII/internal/di"
	"AXII/internal/domain/models"
)

var (
	fetchNewsKey string
	fetchJSON    bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <artist>...",
	Short: "Score artists once and print the table",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchNewsKey, "news-api-key", "", "news API key for this run (defaults to news.api_key)")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "print JSON instead of a table")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	reg, cleanup, err := di.InitializeFetcher(cfg)
	if err != nil {
		return fmt.Errorf("fetcher initialization failed: %w", err)
	}
	defer cleanup()

	creds := models.Credentials{NewsAPIKey: fetchNewsKey}
	for _, name := range args {
		if _, err := reg.Register(cmd.Context(), name, creds); err != nil {
			return fmt.Errorf("fetch %q: %w", name, err)
		}
	}

	out := cmd.OutOrStdout()
	if fetchJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reg.Snapshot())
	}
	return printTable(out, reg.Snapshot())
}

// printTable renders one row per artist. A trailing * marks a fallback value, ~ a synthetic one.
func printTable(w io.Writer, artists []models.Artist) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Artist", "CCI", "EES", "RSMI", "Fetched"})

	var notes []string
	for _, a := range artists {
		t.AppendRow(table.Row{
			a.Name,
			cell(a.Scores.CCI, a.Signals.CCI),
			cell(a.Scores.EES, a.Signals.EES),
			cell(a.Scores.RSMI, a.Signals.RSMI),
			a.FetchedAt.Format(time.DateTime),
		})
		if a.Signals.CCI.Error != "" {
			notes = append(notes, fmt.Sprintf("%s CCI: %s", a.Name, a.Signals.CCI.Error))
		}
		if a.Signals.RSMI.Error != "" {
			notes = append(notes, fmt.Sprintf("%s RSMI: %s", a.Name, a.Signals.RSMI.Error))
		}
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(notes) > 0 {
		_, err := fmt.Fprintf(w, "\n* fallback value\n  %s\n", strings.Join(notes, "\n  "))
		return err
	}
	return nil
}

func cell(score int, st models.SignalStatus) string {
	switch {
	case !st.Succeeded:
		return fmt.Sprintf("%d*", score)
	case st.Synthetic:
		return fmt.Sprintf("%d~", score)
	default:
		return fmt.Sprint(score)
	}
}
