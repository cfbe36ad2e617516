package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldcare-dispatch-service/internal/adapters/distance"
	"fieldcare-dispatch-service/internal/adapters/repositories"
	"fieldcare-dispatch-service/internal/api/dto"
	"fieldcare-dispatch-service/internal/domain"
	"fieldcare-dispatch-service/internal/services"
)

func floatPtr(f float64) *float64 { return &f }
func int64Ptr(v int64) *int64     { return &v }

func newTestHandler(t *testing.T) (*DraftHandler, *repositories.MemoryRecordStore) {
	t.Helper()

	store := repositories.NewMemoryRecordStore()
	store.AddStaff(&domain.Staff{ID: 10, Name: "Driver Dan", IsDriver: true})
	store.AddStaff(&domain.Staff{ID: 20, Name: "Nurse Nadia"})
	store.AddPatient(&domain.Patient{ID: 1, Name: "P1", Lat: floatPtr(25.281987), Lng: floatPtr(55.296249)})

	start, err := time.Parse(time.RFC3339, "2026-03-02T10:00:00Z")
	require.NoError(t, err)
	store.AddAppointment(&domain.Appointment{
		ID: 1, PatientID: 1, PrimaryStaffID: int64Ptr(20),
		Start: start, End: start.Add(30 * time.Minute),
	})

	provider := &distance.MockMatrixProvider{Err: errors.New("provider down")}
	travel := services.NewTravelTimeService(provider, nil)
	gen := services.NewDraftRouteGenerator(store, travel, services.GeneratorConfig{})
	return &DraftHandler{Generator: gen}, store
}

func TestGenerateEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	body := bytes.NewBufferString(`{"date":"2026-03-02"}`)
	req := httptest.NewRequest(http.MethodPost, "/draft-routes", body)
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res dto.GenerateDraftsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))

	assert.Equal(t, 1, res.TotalAppointments)
	assert.Equal(t, 1, res.AssignedAppointments)
	assert.Empty(t, res.UnassignedAppointments)
	require.Len(t, res.Drafts, 1)
	assert.Equal(t, "Driver Dan", res.Drafts[0].SuggestedDriverName)
	assert.Len(t, res.Drafts[0].Legs, 3)
}

func TestGenerateRejectsBadDate(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/draft-routes", bytes.NewBufferString(`{"date":"03/02/2026"}`))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateRejectsWrongMethod(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/draft-routes", nil)
	rec := httptest.NewRecorder()

	h.Generate(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestApplyEndpointPersistsDraft(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	// Generate, then send the first draft back for persistence.
	genReq := httptest.NewRequest(http.MethodPost, "/draft-routes", bytes.NewBufferString(`{"date":"2026-03-02"}`))
	genRec := httptest.NewRecorder()
	h.Generate(genRec, genReq)
	require.Equal(t, http.StatusOK, genRec.Code)

	var genRes dto.GenerateDraftsResponse
	require.NoError(t, json.NewDecoder(genRec.Body).Decode(&genRes))
	require.Len(t, genRes.Drafts, 1)

	applyBody, err := json.Marshal(dto.ApplyDraftRequest{
		Trip: genRes.Drafts[0].Trip,
		Legs: genRes.Drafts[0].Legs,
	})
	require.NoError(t, err)

	applyReq := httptest.NewRequest(http.MethodPost, "/draft-routes/apply", bytes.NewReader(applyBody))
	applyRec := httptest.NewRecorder()
	h.Apply(applyRec, applyReq)

	require.Equal(t, http.StatusCreated, applyRec.Code)

	var applyRes dto.ApplyDraftResponse
	require.NoError(t, json.NewDecoder(applyRec.Body).Decode(&applyRes))
	assert.Equal(t, genRes.Drafts[0].Trip.ID, applyRes.TripID)

	trips, err := store.ListTripsByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	require.Len(t, trips, 1)

	legs, err := store.ListLegsByTrips(ctx, []string{trips[0].ID})
	require.NoError(t, err)
	assert.Len(t, legs, 3)
}

func TestApplyValidatesPayload(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/draft-routes/apply", bytes.NewBufferString(`{"trip":{"id":""},"legs":[]}`))
	rec := httptest.NewRecorder()

	h.Apply(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
