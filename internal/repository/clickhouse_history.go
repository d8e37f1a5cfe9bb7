package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"AXII/internal/domain/models"
	domrepo "AXII/internal/domain/repository"
	pkgch "AXII/pkg/clickhouse"
	applogger "AXII/pkg/logger"
)

const historyTable = "artist_index_history"

// HistorySchema creates the history table. Passed to pkgch.Client.InitSchema at startup.
var HistorySchema = []string{
	`CREATE TABLE IF NOT EXISTS ` + historyTable + ` (
        fetched_at    DateTime64(3, 'UTC'),
        name          String,
        cci           UInt8,
        ees           UInt8,
        rsmi          UInt8,
        cci_ok        UInt8,
        ees_ok        UInt8,
        rsmi_ok       UInt8,
        ees_synthetic UInt8,
        cci_error     String,
        rsmi_error    String,
        image_url     String
    ) ENGINE = MergeTree
    PARTITION BY toYYYYMM(fetched_at)
    ORDER BY (name, fetched_at)`,
}

// CHHistoryStore implements HistoryStore backed by ClickHouse.
type CHHistoryStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHHistoryStore(ch *pkgch.Client, l *applogger.Logger) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB(), l: l}
}

// historyRow is the flat column layout of one history entry.
type historyRow struct {
	FetchedAt    time.Time
	Name         string
	CCI          uint8
	EES          uint8
	RSMI         uint8
	CCIOK        uint8
	EESOK        uint8
	RSMIOK       uint8
	EESSynthetic uint8
	CCIError     string
	RSMIError    string
	ImageURL     string
}

func toHistoryRow(a models.Artist) historyRow {
	return historyRow{
		FetchedAt:    a.FetchedAt.UTC(),
		Name:         a.Name,
		CCI:          uint8(models.ClampScore(a.Scores.CCI)),
		EES:          uint8(models.ClampScore(a.Scores.EES)),
		RSMI:         uint8(models.ClampScore(a.Scores.RSMI)),
		CCIOK:        b2u(a.Signals.CCI.Succeeded),
		EESOK:        b2u(a.Signals.EES.Succeeded),
		RSMIOK:       b2u(a.Signals.RSMI.Succeeded),
		EESSynthetic: b2u(a.Signals.EES.Synthetic),
		CCIError:     a.Signals.CCI.Error,
		RSMIError:    a.Signals.RSMI.Error,
		ImageURL:     a.ImageURL,
	}
}

func (r historyRow) artist() models.Artist {
	return models.Artist{
		Name:   r.Name,
		Scores: models.Scores{CCI: int(r.CCI), EES: int(r.EES), RSMI: int(r.RSMI)},
		Signals: models.Signals{
			CCI:  models.SignalStatus{Succeeded: r.CCIOK == 1, Error: r.CCIError},
			EES:  models.SignalStatus{Succeeded: r.EESOK == 1, Synthetic: r.EESSynthetic == 1},
			RSMI: models.SignalStatus{Succeeded: r.RSMIOK == 1, Error: r.RSMIError},
		},
		FetchedAt: r.FetchedAt,
		ImageURL:  r.ImageURL,
	}
}

func b2u(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func (s *CHHistoryStore) Append(ctx context.Context, a models.Artist) error {
	r := toHistoryRow(a)
	const q = `INSERT INTO ` + historyTable + ` (fetched_at, name, cci, ees, rsmi, cci_ok, ees_ok, rsmi_ok, ees_synthetic, cci_error, rsmi_error, image_url)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q,
		r.FetchedAt, r.Name, r.CCI, r.EES, r.RSMI,
		r.CCIOK, r.EESOK, r.RSMIOK, r.EESSynthetic,
		r.CCIError, r.RSMIError, r.ImageURL,
	); err != nil {
		return fmt.Errorf("append history for %q: %w", a.Name, err)
	}
	return nil
}

// History returns entries for name fetched at or after since, newest first.
// A non-positive limit defaults to 100.
func (s *CHHistoryStore) History(ctx context.Context, name string, since time.Time, limit int) ([]models.Artist, error) {
	if limit <= 0 {
		limit = 100
	}
	start := time.Now()
	const q = `
        SELECT fetched_at, name, cci, ees, rsmi, cci_ok, ees_ok, rsmi_ok, ees_synthetic, cci_error, rsmi_error, image_url
        FROM ` + historyTable + `
        WHERE name = ? AND fetched_at >= ?
        ORDER BY fetched_at DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, name, since.UTC(), limit)
	if err != nil {
		s.l.Error("clickhouse history query error", applogger.String("artist", name), applogger.Error(err))
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.Artist, 0, limit)
	for rows.Next() {
		var r historyRow
		if err := rows.Scan(&r.FetchedAt, &r.Name, &r.CCI, &r.EES, &r.RSMI,
			&r.CCIOK, &r.EESOK, &r.RSMIOK, &r.EESSynthetic,
			&r.CCIError, &r.RSMIError, &r.ImageURL); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, r.artist())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse history query",
		applogger.String("artist", name),
		applogger.Int("rows", len(out)),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return out, nil
}

var _ domrepo.HistoryStore = (*CHHistoryStore)(nil)
