package vehicles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dealerdesk/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdesk/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdesk/dealerdesk-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the vehicle sales-lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateVehicleInput) (*models.Vehicle, error)
	List(ctx context.Context) ([]models.Vehicle, error)
	Get(ctx context.Context, id int64) (*models.Vehicle, error)
	Update(ctx context.Context, id int64, input UpdateVehicleInput) (*models.Vehicle, error)
	StateAt(ctx context.Context, id int64, at time.Time) (*models.Vehicle, error)
}

// CreateVehicleInput holds the fields required to register a vehicle. New
// vehicles always start in the quoted state.
type CreateVehicleInput struct {
	Make  string
	Model string
}

// UpdateVehicleInput is a partial update: nil fields are left untouched. A
// nil State and a State equal to the current value are both no-ops for the
// history log.
type UpdateVehicleInput struct {
	Make  *string
	Model *string
	State *enums.VehicleState
}

type service struct {
	tx        txRunner
	vehicles  Repository
	stateLogs StateLogRepository
	now       func() time.Time
}

// NewService builds a vehicle service from its two repositories and a
// transaction runner.
func NewService(tx txRunner, vehicles Repository, stateLogs StateLogRepository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle repository required")
	}
	if stateLogs == nil {
		return nil, fmt.Errorf("state log repository required")
	}
	return &service{
		tx:        tx,
		vehicles:  vehicles,
		stateLogs: stateLogs,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Create inserts the vehicle and its initial history entry in one
// transaction: either both rows land or neither does.
func (s *service) Create(ctx context.Context, input CreateVehicleInput) (*models.Vehicle, error) {
	if input.Make == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "make must not be empty")
	}
	if input.Model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model must not be empty")
	}

	vehicle := &models.Vehicle{
		Make:  input.Make,
		Model: input.Model,
		State: enums.VehicleStateQuoted,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.vehicles.WithTx(tx).Create(ctx, vehicle); err != nil {
			return err
		}
		entry := &models.StateLog{
			VehicleID: vehicle.ID,
			State:     vehicle.State,
			Timestamp: s.now(),
		}
		return s.stateLogs.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist vehicle")
	}

	return vehicle, nil
}

// List returns every vehicle. No ordering guarantee and no pagination yet.
// TODO: add pagination once the fleet size makes unbounded listing a problem.
func (s *service) List(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := s.vehicles.FindAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vehicles")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vehicle")
	}
	return vehicle, nil
}

// Update applies the provided fields and appends a history entry if and only
// if a state was provided and it differs from the state before the update.
// Re-asserting the current state, or patching make/model alone, leaves the
// log untouched.
func (s *service) Update(ctx context.Context, id int64, input UpdateVehicleInput) (*models.Vehicle, error) {
	// Existence check happens outside the write transaction so a plain
	// missing id never opens one.
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	var updated *models.Vehicle
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.vehicles.WithTx(tx)

		vehicle, err := repo.FindByID(ctx, id)
		if err != nil {
			return err
		}

		stateBeforeUpdate := vehicle.State
		if input.Make != nil {
			vehicle.Make = *input.Make
		}
		if input.Model != nil {
			vehicle.Model = *input.Model
		}
		if input.State != nil {
			vehicle.State = *input.State
		}

		if err := repo.Save(ctx, vehicle); err != nil {
			return err
		}

		if input.State != nil && *input.State != stateBeforeUpdate {
			entry := &models.StateLog{
				VehicleID: vehicle.ID,
				State:     vehicle.State,
				Timestamp: s.now(),
			}
			if err := s.stateLogs.WithTx(tx).Create(ctx, entry); err != nil {
				return err
			}
		}

		updated = vehicle
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update vehicle")
	}

	return updated, nil
}

// StateAt reconstructs the vehicle's state as of the given instant from the
// append-only log. A missing vehicle and a timestamp predating the first
// entry surface the same NOT_FOUND error.
func (s *service) StateAt(ctx context.Context, id int64, at time.Time) (*models.Vehicle, error) {
	vehicle, err := s.vehicles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundAt(id, at)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup vehicle")
	}

	entry, err := s.stateLogs.LatestAtOrBefore(ctx, id, at)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundAt(id, at)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup state log")
	}

	vehicle.State = entry.State
	return vehicle, nil
}

func notFound(id int64) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("vehicle with id %d not found", id))
}

func notFoundAt(id int64, at time.Time) *pkgerrors.Error {
	return pkgerrors.New(
		pkgerrors.CodeNotFound,
		fmt.Sprintf("vehicle with id %d not found at %s", id, at.UTC().Format(time.RFC3339)),
	)
}
