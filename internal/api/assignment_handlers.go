package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praktijk-epd/scheduling/internal/assignment"
)

const dateLayout = "2006-01-02"

func assignmentResponse(a *assignment.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:         a.ID,
		TemplateID: a.TemplateID,
		ClientID:   a.ClientID,
		AssignedBy: a.AssignedBy,
		Status:     string(a.Status),
	}
	if a.Recurrence != nil {
		rule := RecurrenceRuleRequest{
			Frequency:       string(a.Recurrence.Frequency),
			StartDate:       a.Recurrence.StartDate,
			EndDate:         a.Recurrence.EndDate,
			OccurrenceCount: a.Recurrence.OccurrenceCount,
		}
		if a.Recurrence.DayOfWeek != nil {
			d := int(*a.Recurrence.DayOfWeek)
			rule.DayOfWeek = &d
		}
		resp.Recurrence = &rule
	}
	return resp
}

func createAssignmentHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAssignmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_template_id", "template_id must be a valid UUID")
			return
		}
		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}
		assignedBy, err := uuid.Parse(req.AssignedBy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_assigned_by", "assigned_by must be a valid UUID")
			return
		}

		createReq := assignment.CreateRequest{
			TemplateID: templateID,
			ClientID:   clientID,
			AssignedBy: assignedBy,
		}
		if req.Recurrence != nil {
			rule := assignment.RecurrenceRule{
				Frequency:       assignment.Frequency(req.Recurrence.Frequency),
				StartDate:       req.Recurrence.StartDate,
				EndDate:         req.Recurrence.EndDate,
				OccurrenceCount: req.Recurrence.OccurrenceCount,
			}
			if req.Recurrence.DayOfWeek != nil {
				wd := time.Weekday(*req.Recurrence.DayOfWeek)
				rule.DayOfWeek = &wd
			}
			createReq.Recurrence = &rule
		}

		a, err := svc.Create(r.Context(), createReq)
		if err != nil {
			handleAssignmentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, assignmentResponse(a))
	}
}

func checkInHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_assignment_id")
		if !ok {
			return
		}

		var req CheckInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.Parse(dateLayout, req.OccurrenceDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_occurrence_date", "occurrence_date must be YYYY-MM-DD")
			return
		}

		ev, err := svc.CheckIn(r.Context(), id, date, req.Value)
		if err != nil {
			handleAssignmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CheckInResponse{
			ID:             ev.ID,
			AssignmentID:   ev.AssignmentID,
			OccurrenceDate: ev.OccurrenceDate.Format(dateLayout),
			CompletedAt:    ev.CompletedAt,
			Value:          ev.Value,
		})
	}
}

func progressHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_assignment_id")
		if !ok {
			return
		}

		snap, err := svc.Progress(r.Context(), id)
		if err != nil {
			handleAssignmentError(w, err)
			return
		}

		resp := ProgressResponse{
			CompletedCount:   snap.CompletedCount,
			TotalOccurrences: snap.TotalOccurrences,
			CurrentStreak:    snap.CurrentStreak,
		}
		if snap.LastCompletedDate != nil {
			s := snap.LastCompletedDate.Format(dateLayout)
			resp.LastCompletedDate = &s
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func assignmentOccurrencesHandler(svc *assignment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r, "invalid_assignment_id")
		if !ok {
			return
		}

		occurrences, err := svc.Occurrences(r.Context(), id)
		if err != nil {
			handleAssignmentError(w, err)
			return
		}

		dates := make([]string, 0, len(occurrences))
		for _, occ := range occurrences {
			dates = append(dates, occ.Format(dateLayout))
		}
		writeJSON(w, http.StatusOK, dates)
	}
}

func handleAssignmentError(w http.ResponseWriter, err error) {
	var ruleErr *assignment.RuleError

	switch {
	case errors.As(err, &ruleErr):
		writeError(w, http.StatusBadRequest, "invalid_recurrence_rule", ruleErr.Error())
	case errors.Is(err, assignment.ErrAssignmentNotFound):
		writeError(w, http.StatusNotFound, "assignment_not_found", err.Error())
	case errors.Is(err, assignment.ErrAssignmentInactive):
		writeError(w, http.StatusConflict, "assignment_inactive", err.Error())
	case errors.Is(err, assignment.ErrUnscheduledCheckIn):
		writeError(w, http.StatusUnprocessableEntity, "unscheduled_check_in", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
