package repository

import (
	"context"
	"time"

	"AXII/internal/domain/models"
)

// Metrics records signal and registry observations.
type Metrics interface {
	RecordSignal(signal string, succeeded bool, seconds float64)
	RecordRegistration(seconds float64)
	SetRegistrySize(n int)
	RecordSinkError(sink string)
}

// HistoryStore appends every composed record for trend queries.
type HistoryStore interface {
	Append(ctx context.Context, a models.Artist) error
	History(ctx context.Context, name string, since time.Time, limit int) ([]models.Artist, error)
}

// EventPublisher broadcasts registry changes to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, ev models.RegistryEvent) error
}

// SnapshotStore persists the registry so it survives restarts.
type SnapshotStore interface {
	Save(ctx context.Context, a models.Artist, position int) error
	Delete(ctx context.Context, name string) error
	LoadAll(ctx context.Context) ([]models.Artist, error)
}
