package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"AXII/internal/domain/models"
	domrepo "AXII/internal/domain/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// ArtistRecord is the persisted registry row. The full Artist is kept as JSON.
type ArtistRecord struct {
	Name      string `gorm:"primaryKey"`
	Position  int    `gorm:"index"`
	Payload   string
	UpdatedAt time.Time
}

func (ArtistRecord) TableName() string { return "registry_artists" }

// SQLiteRegistryStore implements SnapshotStore on SQLite through gorm.
type SQLiteRegistryStore struct {
	db *gorm.DB
}

// OpenSQLiteRegistryStore opens (or creates) the database at path and migrates it.
func OpenSQLiteRegistryStore(path string) (*SQLiteRegistryStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewSQLiteRegistryStore(db)
}

func NewSQLiteRegistryStore(db *gorm.DB) (*SQLiteRegistryStore, error) {
	if err := db.AutoMigrate(&ArtistRecord{}); err != nil {
		return nil, fmt.Errorf("migrate registry: %w", err)
	}
	return &SQLiteRegistryStore{db: db}, nil
}

func (s *SQLiteRegistryStore) Save(ctx context.Context, a models.Artist, position int) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode %q: %w", a.Name, err)
	}
	rec := ArtistRecord{Name: a.Name, Position: position, Payload: string(b)}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"position", "payload", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save %q: %w", a.Name, err)
	}
	return nil
}

// Delete removes name and closes the gap it leaves so positions stay dense,
// mirroring the in-memory order.
func (s *SQLiteRegistryStore) Delete(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec ArtistRecord
		res := tx.Where("name = ?", name).Limit(1).Find(&rec)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Delete(&ArtistRecord{Name: name}).Error; err != nil {
			return err
		}
		return tx.Model(&ArtistRecord{}).
			Where("position > ?", rec.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// LoadAll returns the saved artists in registry order.
func (s *SQLiteRegistryStore) LoadAll(ctx context.Context) ([]models.Artist, error) {
	var recs []ArtistRecord
	if err := s.db.WithContext(ctx).Order("position ASC").Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	out := make([]models.Artist, 0, len(recs))
	for _, r := range recs {
		var a models.Artist
		if err := json.Unmarshal([]byte(r.Payload), &a); err != nil {
			return nil, fmt.Errorf("decode %q: %w", r.Name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *SQLiteRegistryStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ domrepo.SnapshotStore = (*SQLiteRegistryStore)(nil)
