package models

import (
	"time"

	"github.com/dealerdesk/dealerdesk-backend/pkg/enums"
)

// Vehicle is a tracked sales entity. State always reflects the most recently
// logged transition; the full history lives in state_logs.
type Vehicle struct {
	ID        int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Make      string             `gorm:"column:make;type:text;not null"`
	Model     string             `gorm:"column:model;type:text;not null"`
	State     enums.VehicleState `gorm:"column:state;type:vehicle_state;not null;default:'quoted'"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides gorm's default pluralization.
func (Vehicle) TableName() string {
	return "vehicles"
}
