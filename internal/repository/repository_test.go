package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"AXII/internal/domain/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArtist(name string, cci int) models.Artist {
	return models.Artist{
		Name:   name,
		Scores: models.Scores{CCI: cci, EES: 71, RSMI: 27},
		Signals: models.Signals{
			CCI:  models.SignalStatus{Succeeded: false, Error: "timeout"},
			EES:  models.SignalStatus{Succeeded: true, Synthetic: true},
			RSMI: models.SignalStatus{Succeeded: true},
		},
		FetchedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		ImageURL:  "https://img.example/" + name,
	}
}

func TestHistoryRowRoundTrip(t *testing.T) {
	a := sampleArtist("Cao Fei", 50)
	got := toHistoryRow(a).artist()
	if diff := cmp.Diff(a, got); diff != "" {
		t.Fatalf("row mapping mismatch (-want +got):\n%s", diff)
	}

	clamped := toHistoryRow(models.Artist{Scores: models.Scores{CCI: 300, EES: -1}})
	assert.Equal(t, uint8(100), clamped.CCI)
	assert.Equal(t, uint8(0), clamped.EES)
}

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func TestKafkaEventPublisher(t *testing.T) {
	p := &fakeProducer{}
	pub := NewKafkaEventPublisher(p, "axii.artist-events")
	a := sampleArtist("Cao Fei", 50)
	ev := models.RegistryEvent{Type: models.EventUpsert, Name: a.Name, Artist: &a}

	require.NoError(t, pub.Publish(context.Background(), ev))
	assert.Equal(t, "axii.artist-events", p.topic)
	assert.Equal(t, "Cao Fei", string(p.key))

	b, err := json.Marshal(p.value)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"type":"upsert"`)

	p.err = errors.New("broker down")
	assert.Error(t, pub.Publish(context.Background(), ev))
}

func TestSQLiteRegistryStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "axii.db")
	s, err := OpenSQLiteRegistryStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Save(ctx, sampleArtist("B", 10), 1))
	require.NoError(t, s.Save(ctx, sampleArtist("A", 20), 0))
	require.NoError(t, s.Save(ctx, sampleArtist("C", 30), 2))
	require.NoError(t, s.Save(ctx, sampleArtist("B", 99), 1))
	require.NoError(t, s.Delete(ctx, "C"))
	require.NoError(t, s.Delete(ctx, "missing"))

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	want := []models.Artist{sampleArtist("A", 20), sampleArtist("B", 99)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("LoadAll mismatch (-want +got):\n%s", diff)
	}

	// reopen: data survives
	require.NoError(t, s.Close())
	s2, err := OpenSQLiteRegistryStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })
	got, err = s2.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLiteRegistryStoreDeleteKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLiteRegistryStore(filepath.Join(t.TempDir(), "axii.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	for i, n := range []string{"Z", "Y", "X"} {
		require.NoError(t, s.Save(ctx, sampleArtist(n, i), i))
	}
	require.NoError(t, s.Delete(ctx, "Z"))
	// the registry appends the next artist at len(order) == 2
	require.NoError(t, s.Save(ctx, sampleArtist("A", 5), 2))

	got, err := s.LoadAll(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, a := range got {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Y", "X", "A"}, names)
}
