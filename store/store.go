// Package store persists calibration runs through gorm, on sqlite by
// default or PostgreSQL.
package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/YuminosukeSato/rulconform/config"
	"github.com/YuminosukeSato/rulconform/pkg/errors"
)

type Store interface {
	Create(ctx context.Context, run *CalibrationRun) error
	Get(ctx context.Context, id uuid.UUID) (*CalibrationRun, error)
	// List returns the newest runs first. A limit <= 0 returns all runs.
	List(ctx context.Context, limit int) ([]CalibrationRun, error)
	Latest(ctx context.Context) (*CalibrationRun, error)
	Close() error
}

type DataStore struct {
	db *gorm.DB
}

// Make sure we conform to Store interface
var _ Store = (*DataStore)(nil)

func NewStore(db *gorm.DB) *DataStore {
	return &DataStore{db: db}
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Database) (*DataStore, error) {
	db, err := InitDB(cfg)
	if err != nil {
		return nil, err
	}
	s := NewStore(db)
	if err := s.InitialMigration(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *DataStore) InitialMigration() error {
	return errors.Wrap(s.db.AutoMigrate(&CalibrationRun{}), "migrate calibration_runs")
}

func (s *DataStore) Create(ctx context.Context, run *CalibrationRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	result := s.db.WithContext(ctx).Create(run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return errors.Wrapf(ErrDuplicateKey, "calibration run %s", run.ID)
		}
		return errors.Wrap(result.Error, "create calibration run")
	}
	return nil
}

func (s *DataStore) Get(ctx context.Context, id uuid.UUID) (*CalibrationRun, error) {
	var run CalibrationRun
	result := s.db.WithContext(ctx).First(&run, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(ErrRecordNotFound, "calibration run %s", id)
		}
		return nil, errors.Wrap(result.Error, "get calibration run")
	}
	return &run, nil
}

func (s *DataStore) List(ctx context.Context, limit int) ([]CalibrationRun, error) {
	var runs []CalibrationRun
	tx := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if result := tx.Find(&runs); result.Error != nil {
		return nil, errors.Wrap(result.Error, "list calibration runs")
	}
	return runs, nil
}

func (s *DataStore) Latest(ctx context.Context) (*CalibrationRun, error) {
	var run CalibrationRun
	result := s.db.WithContext(ctx).Order("created_at desc").First(&run)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(ErrRecordNotFound, "latest calibration run")
		}
		return nil, errors.Wrap(result.Error, "get latest calibration run")
	}
	return &run, nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
