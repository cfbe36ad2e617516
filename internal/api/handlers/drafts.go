package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"fieldcare-dispatch-service/internal/api/dto"
	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/services"
)

// DraftHandler exposes draft-route generation and apply endpoints.
type DraftHandler struct {
	Generator *services.DraftRouteGenerator
}

// Generate produces draft routes for a date. Generation is read-only; the
// returned drafts are persisted only through Apply.
func (h *DraftHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.GenerateDraftsRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
		return
	}

	res, err := h.Generator.Generate(r.Context(), req.Date)
	if err != nil {
		log.Printf("generate drafts failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	out := dto.GenerateDraftsResponse{
		Drafts:                 make([]dto.DraftRoutePayload, 0, len(res.Drafts)),
		TotalAppointments:      res.TotalAppointments,
		AssignedAppointments:   res.AssignedAppointments,
		UnassignedAppointments: res.UnassignedAppointments,
		SplitDriverSuggestions: res.SplitDriverSuggestions,
	}
	if out.UnassignedAppointments == nil {
		out.UnassignedAppointments = []int64{}
	}
	for i := range res.Drafts {
		out.Drafts = append(out.Drafts, draftToPayload(&res.Drafts[i]))
	}

	writeJSON(w, r, http.StatusOK, out)
}

// Apply persists an operator-approved draft.
func (h *DraftHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.ApplyDraftRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.Trip.ID == "" || req.Trip.DriverID == 0 {
		writeError(w, r, http.StatusBadRequest, "trip id and driver_id are required")
		return
	}
	if len(req.Legs) == 0 {
		writeError(w, r, http.StatusBadRequest, "at least one leg is required")
		return
	}

	draft := payloadToDraft(&req)
	if err := h.Generator.Apply(r.Context(), draft); err != nil {
		log.Printf("apply draft failed: trip=%s err=%v", req.Trip.ID, err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.ApplyDraftResponse{
		TripID: draft.Trip.ID,
		Status: string(draft.Trip.Status),
	})
}

func draftToPayload(d *domain.DraftRoute) dto.DraftRoutePayload {
	out := dto.DraftRoutePayload{
		Trip: dto.TripPayload{
			ID:       d.Trip.ID,
			DriverID: d.Trip.DriverID,
			TripDate: d.Trip.TripDate,
			Start:    d.Trip.Start,
			End:      d.Trip.End,
			Status:   string(d.Trip.Status),
		},
		Legs:                make([]dto.TripLegPayload, 0, len(d.Legs)),
		Conflicts:           make([]dto.ConflictResponse, 0, len(d.Conflicts)),
		SuggestedDriverName: d.SuggestedDriverName,
		Confidence:          d.Confidence,
	}

	for _, l := range d.Legs {
		var ret *string
		if l.ReturnLocation != nil {
			s := string(*l.ReturnLocation)
			ret = &s
		}
		out.Legs = append(out.Legs, dto.TripLegPayload{
			ID:               l.ID,
			TripID:           l.TripID,
			Type:             string(l.Type),
			Order:            l.Order,
			StaffID:          l.StaffID,
			AppointmentID:    l.AppointmentID,
			LocationType:     string(l.LocationType),
			LocationID:       l.LocationID,
			PlannedArrival:   l.PlannedArrival,
			PlannedDeparture: l.PlannedDeparture,
			Locked:           l.Locked,
			WaitMinutes:      l.WaitMinutes,
			ReturnLocation:   ret,
		})
	}

	for _, c := range d.Conflicts {
		out.Conflicts = append(out.Conflicts, dto.ConflictResponse{
			LegID:         c.LegID,
			AppointmentID: c.AppointmentID,
			Category:      string(c.Category),
			Severity:      string(c.Severity),
			Detail:        c.Detail,
		})
	}

	return out
}

func payloadToDraft(req *dto.ApplyDraftRequest) *domain.DraftRoute {
	status := domain.TripStatus(req.Trip.Status)
	if status == "" {
		status = domain.TripDraft
	}

	draft := &domain.DraftRoute{
		Trip: domain.DriverTrip{
			ID:       req.Trip.ID,
			DriverID: req.Trip.DriverID,
			TripDate: req.Trip.TripDate,
			Start:    req.Trip.Start,
			End:      req.Trip.End,
			Status:   status,
		},
		Legs: make([]domain.TripLeg, 0, len(req.Legs)),
	}

	for _, l := range req.Legs {
		var ret *domain.LocationType
		if l.ReturnLocation != nil {
			lt := domain.LocationType(*l.ReturnLocation)
			ret = &lt
		}
		tripID := l.TripID
		if tripID == "" {
			tripID = req.Trip.ID
		}
		draft.Legs = append(draft.Legs, domain.TripLeg{
			ID:               l.ID,
			TripID:           tripID,
			Type:             domain.LegType(l.Type),
			Order:            l.Order,
			StaffID:          l.StaffID,
			AppointmentID:    l.AppointmentID,
			LocationType:     domain.LocationType(l.LocationType),
			LocationID:       l.LocationID,
			PlannedArrival:   l.PlannedArrival,
			PlannedDeparture: l.PlannedDeparture,
			Locked:           l.Locked,
			WaitMinutes:      l.WaitMinutes,
			ReturnLocation:   ret,
		})
	}

	return draft
}
