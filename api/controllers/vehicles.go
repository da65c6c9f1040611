package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dealerdesk/dealerdesk-backend/api/responses"
	"github.com/dealerdesk/dealerdesk-backend/api/validators"
	"github.com/dealerdesk/dealerdesk-backend/internal/vehicles"
	"github.com/dealerdesk/dealerdesk-backend/pkg/db/models"
	"github.com/dealerdesk/dealerdesk-backend/pkg/enums"
	pkgerrors "github.com/dealerdesk/dealerdesk-backend/pkg/errors"
	"github.com/dealerdesk/dealerdesk-backend/pkg/logger"
)

type vehicleCreateRequest struct {
	Make  string `json:"make" validate:"required"`
	Model string `json:"model" validate:"required"`
}

type vehicleUpdateRequest struct {
	Make  *string `json:"make" validate:"omitempty,min=1"`
	Model *string `json:"model" validate:"omitempty,min=1"`
	State *string `json:"state"`
}

func (r vehicleUpdateRequest) toInput() (vehicles.UpdateVehicleInput, error) {
	input := vehicles.UpdateVehicleInput{
		Make:  r.Make,
		Model: r.Model,
	}
	if r.State != nil {
		state, err := enums.ParseVehicleState(*r.State)
		if err != nil {
			return vehicles.UpdateVehicleInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle state").
				WithDetails(map[string]string{"state": "must be one of quoted, selling, sold"})
		}
		input.State = &state
	}
	return input, nil
}

type vehicleResponse struct {
	ID    int64              `json:"id"`
	Make  string             `json:"make"`
	Model string             `json:"model"`
	State enums.VehicleState `json:"state"`
}

func vehicleResponseFromModel(m *models.Vehicle) vehicleResponse {
	return vehicleResponse{
		ID:    m.ID,
		Make:  m.Make,
		Model: m.Model,
		State: m.State,
	}
}

// VehicleCreate registers a new vehicle in the quoted state.
func VehicleCreate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		var payload vehicleCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), vehicles.CreateVehicleInput{
			Make:  strings.TrimSpace(payload.Make),
			Model: strings.TrimSpace(payload.Model),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, vehicleResponseFromModel(created))
	}
}

// VehicleList returns every vehicle. Unordered; pagination is a known gap.
func VehicleList(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]vehicleResponse, 0, len(rows))
		for i := range rows {
			out = append(out, vehicleResponseFromModel(&rows[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// VehicleGet fetches a single vehicle by id.
func VehicleGet(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		id, err := vehicleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vehicleResponseFromModel(vehicle))
	}
}

// VehicleUpdate applies a partial update. A state change (and only a genuine
// one) appends to the vehicle's history log.
func VehicleUpdate(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		id, err := vehicleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload vehicleUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vehicleResponseFromModel(updated))
	}
}

// VehicleStateLog answers "what state was this vehicle in at time t" from
// the append-only history.
func VehicleStateLog(svc vehicles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vehicle service unavailable"))
			return
		}

		id, err := vehicleIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		at, err := validators.ParseQueryTimestamp(r, "timestamp")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		vehicle, err := svc.StateAt(r.Context(), id, at)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, vehicleResponseFromModel(vehicle))
	}
}

func vehicleIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "vehicleId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid vehicle id").
			WithDetails(map[string]string{"vehicleId": "must be a positive integer"})
	}
	return id, nil
}
