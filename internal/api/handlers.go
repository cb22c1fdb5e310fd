package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/praktijk-epd/scheduling/internal/scheduling"
)

func appointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:          a.ID,
		TherapistID: a.TherapistID,
		ClientID:    a.ClientID,
		Start:       a.Slot.Start,
		End:         a.Slot.End,
		Type:        string(a.Type),
		Location:    a.Location,
		Status:      string(a.Status),
		Notes:       a.Notes,
	}
}

func createAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		therapistID, err := uuid.Parse(req.TherapistID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_therapist_id", "therapist_id must be a valid UUID")
			return
		}

		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		createReq := scheduling.CreateRequest{
			TherapistID: therapistID,
			ClientID:    clientID,
			Start:       req.Start,
			Type:        scheduling.AppointmentType(req.Type),
			Location:    req.Location,
			Notes:       req.Notes,
		}
		if req.End != nil {
			createReq.End = *req.End
		}

		appt, err := svc.CreateAppointment(r.Context(), createReq)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, appointmentResponse(appt))
	}
}

func updateAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_appointment_id")
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patch := scheduling.UpdatePatch{
			Start:    req.Start,
			End:      req.End,
			Location: req.Location,
			Notes:    req.Notes,
		}
		if req.Status != nil {
			status := scheduling.AppointmentStatus(*req.Status)
			patch.Status = &status
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, patch)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(appt))
	}
}

func cancelAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_appointment_id")
		if !ok {
			return
		}

		var req CancelAppointmentRequest
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
		}

		if err := svc.CancelAppointment(r.Context(), id, req.Reason); err != nil {
			handleSchedulingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_appointment_id")
		if !ok {
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, appointmentResponse(&detail.Appointment))
	}
}

func freeSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		therapistID, ok := parseIDParam(w, r, "invalid_therapist_id")
		if !ok {
			return
		}

		from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from", "from must be RFC3339")
			return
		}
		to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to", "to must be RFC3339")
			return
		}

		var granularity time.Duration
		if g := r.URL.Query().Get("granularity"); g != "" {
			granularity, err = time.ParseDuration(g)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_granularity", "granularity must be a duration like 30m")
				return
			}
		}

		slots, err := svc.FreeSlots(r.Context(), therapistID, from, to, granularity)
		if err != nil {
			handleSchedulingError(w, err)
			return
		}

		resp := make([]TimeSlotResponse, 0, len(slots))
		for _, s := range slots {
			resp = append(resp, TimeSlotResponse{Start: s.Start, End: s.End})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func parseIDParam(w http.ResponseWriter, r *http.Request, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, code, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleSchedulingError(w http.ResponseWriter, err error) {
	var validationErr *scheduling.ValidationError
	var conflictErr *scheduling.ConflictError
	var transitionErr *scheduling.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation_failed", validationErr.Error())
	case errors.Is(err, scheduling.ErrTherapistNotFound):
		writeError(w, http.StatusNotFound, "therapist_not_found", err.Error())
	case errors.Is(err, scheduling.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.As(err, &conflictErr):
		writeError(w, http.StatusConflict, "slot_conflict", conflictErr.Error())
	case errors.As(err, &transitionErr):
		writeError(w, http.StatusConflict, "invalid_status_transition", transitionErr.Error())
	case errors.Is(err, scheduling.ErrTherapistBusy):
		writeError(w, http.StatusConflict, "calendar_busy", "therapist calendar is being modified, please retry shortly")
	case errors.Is(err, scheduling.ErrSchedulingTimeout):
		writeError(w, http.StatusServiceUnavailable, "scheduling_timeout", "operation timed out, safe to retry")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
