package enums

import "fmt"

// VehicleState maps to the vehicle_state enum in Postgres. A vehicle moves
// quoted -> selling -> sold over its sales lifecycle.
type VehicleState string

const (
	VehicleStateQuoted  VehicleState = "quoted"
	VehicleStateSelling VehicleState = "selling"
	VehicleStateSold    VehicleState = "sold"
)

var validVehicleStates = []VehicleState{
	VehicleStateQuoted,
	VehicleStateSelling,
	VehicleStateSold,
}

// String implements fmt.Stringer.
func (v VehicleState) String() string {
	return string(v)
}

// IsValid reports whether the value matches the canonical vehicle_state enum.
func (v VehicleState) IsValid() bool {
	for _, candidate := range validVehicleStates {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVehicleState converts raw input into a VehicleState. Matching is exact
// and case-sensitive.
func ParseVehicleState(value string) (VehicleState, error) {
	for _, candidate := range validVehicleStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vehicle state %q", value)
}
