package models

import (
	"time"

	"github.com/dealerdesk/dealerdesk-backend/pkg/enums"
)

// StateLog is one immutable entry of a vehicle's state history. Rows are
// append-only: never updated, never deleted except by cascade when the parent
// vehicle row goes away.
type StateLog struct {
	ID        int64              `gorm:"column:id;primaryKey;autoIncrement"`
	VehicleID int64              `gorm:"column:vehicle_id;not null;index"`
	State     enums.VehicleState `gorm:"column:state;type:vehicle_state;not null"`
	Timestamp time.Time          `gorm:"column:timestamp;type:timestamptz;not null;index"`
}

// TableName overrides gorm's default pluralization.
func (StateLog) TableName() string {
	return "state_logs"
}
