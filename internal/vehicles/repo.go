package vehicles

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dealerdesk/dealerdesk-backend/pkg/db/models"
)

// Repository exposes persistence helpers for vehicle rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, vehicle *models.Vehicle) error
	FindAll(ctx context.Context) ([]models.Vehicle, error)
	FindByID(ctx context.Context, id int64) (*models.Vehicle, error)
	Save(ctx context.Context, vehicle *models.Vehicle) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a vehicle repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *repositoryImpl) FindAll(ctx context.Context) ([]models.Vehicle, error) {
	var rows []models.Vehicle
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id int64) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *repositoryImpl) Save(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

// StateLogRepository exposes append and point-in-time lookup over the
// append-only state history.
type StateLogRepository interface {
	WithTx(tx *gorm.DB) StateLogRepository
	Create(ctx context.Context, entry *models.StateLog) error
	LatestAtOrBefore(ctx context.Context, vehicleID int64, at time.Time) (*models.StateLog, error)
}

type stateLogRepositoryImpl struct {
	db *gorm.DB
}

// NewStateLogRepository returns a state-log repository bound to the provided database.
func NewStateLogRepository(db *gorm.DB) StateLogRepository {
	return &stateLogRepositoryImpl{db: db}
}

func (r *stateLogRepositoryImpl) WithTx(tx *gorm.DB) StateLogRepository {
	if tx == nil {
		return r
	}
	return &stateLogRepositoryImpl{db: tx}
}

func (r *stateLogRepositoryImpl) Create(ctx context.Context, entry *models.StateLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// LatestAtOrBefore returns the most recent entry whose timestamp is <= at.
// Entries sharing a timestamp are disambiguated by insertion order (id DESC).
// Returns gorm.ErrRecordNotFound when no entry satisfies the predicate.
func (r *stateLogRepositoryImpl) LatestAtOrBefore(ctx context.Context, vehicleID int64, at time.Time) (*models.StateLog, error) {
	var entry models.StateLog
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND timestamp <= ?", vehicleID, at).
		Order("timestamp DESC, id DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
