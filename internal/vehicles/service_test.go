package vehicles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/dealerdesk/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdesk/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdesk/dealerdesk-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r *gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// stubClock hands out a fixed instant that tests advance explicitly, so
// history timestamps are deterministic.
type stubClock struct {
	current time.Time
}

func (c *stubClock) Now() time.Time {
	return c.current
}

func (c *stubClock) Advance(d time.Duration) time.Time {
	c.current = c.current.Add(d)
	return c.current
}

func newTestService(t *testing.T) (*service, *stubClock, *gorm.DB) {
	t.Helper()

	gdb := openTestDB(t)
	clock := &stubClock{current: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := &service{
		tx:        &gormTxRunner{db: gdb},
		vehicles:  NewRepository(gdb),
		stateLogs: NewStateLogRepository(gdb),
		now:       clock.Now,
	}
	return svc, clock, gdb
}

func countLogs(t *testing.T, gdb *gorm.DB, vehicleID int64) int64 {
	t.Helper()

	var count int64
	require.NoError(t, gdb.Model(&models.StateLog{}).Where("vehicle_id = ?", vehicleID).Count(&count).Error)
	return count
}

func TestServiceNewService(t *testing.T) {
	gdb := openTestDB(t)

	_, err := NewService(nil, NewRepository(gdb), NewStateLogRepository(gdb))
	require.Error(t, err)

	_, err = NewService(&gormTxRunner{db: gdb}, nil, NewStateLogRepository(gdb))
	require.Error(t, err)

	_, err = NewService(&gormTxRunner{db: gdb}, NewRepository(gdb), nil)
	require.Error(t, err)

	svc, err := NewService(&gormTxRunner{db: gdb}, NewRepository(gdb), NewStateLogRepository(gdb))
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestServiceCreateStartsQuotedWithInitialLog(t *testing.T) {
	svc, clock, gdb := newTestService(t)
	ctx := context.Background()

	vehicle, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)
	require.NotZero(t, vehicle.ID)
	assert.Equal(t, enums.VehicleStateQuoted, vehicle.State)

	require.EqualValues(t, 1, countLogs(t, gdb, vehicle.ID))

	var entry models.StateLog
	require.NoError(t, gdb.Where("vehicle_id = ?", vehicle.ID).First(&entry).Error)
	assert.Equal(t, enums.VehicleStateQuoted, entry.State)
	assert.True(t, entry.Timestamp.Equal(clock.Now()))
}

func TestServiceCreateValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateVehicleInput{Make: "", Model: "X5"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: ""})
	require.Error(t, err)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceGetRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateVehicleInput{Make: "Audi", Model: "A4"})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Audi", fetched.Make)
	assert.Equal(t, "A4", fetched.Model)
	assert.Equal(t, enums.VehicleStateQuoted, fetched.State)
}

func TestServiceGetNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), 999)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "vehicle with id 999 not found", typed.Message())
}

func TestServiceListReturnsAllVehicles(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateVehicleInput{Make: "Audi", Model: "A4"})
	require.NoError(t, err)

	rows, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestServiceUpdateStateChangeAppendsLog(t *testing.T) {
	svc, clock, gdb := newTestService(t)
	ctx := context.Background()

	vehicle, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	selling := enums.VehicleStateSelling
	updated, err := svc.Update(ctx, vehicle.ID, UpdateVehicleInput{State: &selling})
	require.NoError(t, err)
	assert.Equal(t, enums.VehicleStateSelling, updated.State)
	require.EqualValues(t, 2, countLogs(t, gdb, vehicle.ID))

	var latest models.StateLog
	require.NoError(t, gdb.Where("vehicle_id = ?", vehicle.ID).Order("id DESC").First(&latest).Error)
	assert.Equal(t, enums.VehicleStateSelling, latest.State)
	assert.True(t, latest.Timestamp.Equal(clock.Now()))
}

func TestServiceUpdateSameStateDoesNotLog(t *testing.T) {
	svc, clock, gdb := newTestService(t)
	ctx := context.Background()

	vehicle, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	quoted := enums.VehicleStateQuoted
	updated, err := svc.Update(ctx, vehicle.ID, UpdateVehicleInput{State: &quoted})
	require.NoError(t, err)
	assert.Equal(t, enums.VehicleStateQuoted, updated.State)
	require.EqualValues(t, 1, countLogs(t, gdb, vehicle.ID))
}

func TestServiceUpdateWithoutStateDoesNotLog(t *testing.T) {
	svc, _, gdb := newTestService(t)
	ctx := context.Background()

	vehicle, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)

	newModel := "X7"
	updated, err := svc.Update(ctx, vehicle.ID, UpdateVehicleInput{Model: &newModel})
	require.NoError(t, err)
	assert.Equal(t, "X7", updated.Model)
	assert.Equal(t, "BMW", updated.Make)
	assert.Equal(t, enums.VehicleStateQuoted, updated.State)
	require.EqualValues(t, 1, countLogs(t, gdb, vehicle.ID))
}

func TestServiceUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	sold := enums.VehicleStateSold
	_, err := svc.Update(context.Background(), 12345, UpdateVehicleInput{State: &sold})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "vehicle with id 12345 not found", typed.Message())
}

func TestServiceStateAtReconstructsHistory(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	createdAt := clock.Now()
	vehicle, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)

	sellingAt := clock.Advance(24 * time.Hour)
	selling := enums.VehicleStateSelling
	_, err = svc.Update(ctx, vehicle.ID, UpdateVehicleInput{State: &selling})
	require.NoError(t, err)

	soldAt := clock.Advance(24 * time.Hour)
	sold := enums.VehicleStateSold
	_, err = svc.Update(ctx, vehicle.ID, UpdateVehicleInput{State: &sold})
	require.NoError(t, err)

	// On the creation instant the vehicle was quoted.
	snapshot, err := svc.StateAt(ctx, vehicle.ID, createdAt)
	require.NoError(t, err)
	assert.Equal(t, enums.VehicleStateQuoted, snapshot.State)
	assert.Equal(t, "BMW", snapshot.Make)

	// Between transitions the earlier state still applies.
	snapshot, err = svc.StateAt(ctx, vehicle.ID, sellingAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, enums.VehicleStateSelling, snapshot.State)

	// After the last transition the final state applies indefinitely.
	snapshot, err = svc.StateAt(ctx, vehicle.ID, soldAt.Add(365*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, enums.VehicleStateSold, snapshot.State)
}

func TestServiceStateAtBeforeCreationIsNotFound(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	vehicle, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)

	at := clock.Now().Add(-time.Second)
	_, err = svc.StateAt(ctx, vehicle.ID, at)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Contains(t, typed.Message(), "not found at "+at.UTC().Format(time.RFC3339))
}

func TestServiceStateAtMissingVehicleIsNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := svc.StateAt(context.Background(), 999999, at)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, "vehicle with id 999999 not found at 2025-06-01T12:00:00Z", typed.Message())
}

func TestServiceStateAtTieBreaksOnInsertionOrder(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	vehicle, err := svc.Create(ctx, CreateVehicleInput{Make: "BMW", Model: "X5"})
	require.NoError(t, err)

	// Two transitions land on the same instant; the later write wins.
	clock.Advance(time.Hour)
	selling := enums.VehicleStateSelling
	_, err = svc.Update(ctx, vehicle.ID, UpdateVehicleInput{State: &selling})
	require.NoError(t, err)

	sold := enums.VehicleStateSold
	_, err = svc.Update(ctx, vehicle.ID, UpdateVehicleInput{State: &sold})
	require.NoError(t, err)

	snapshot, err := svc.StateAt(ctx, vehicle.ID, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, enums.VehicleStateSold, snapshot.State)
}
