package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"fleettrack/internal/shared/util"
	"fleettrack/internal/trip/app"
)

type Handler struct {
	service *app.TripService
	logger  *util.Logger
}

func NewHandler(service *app.TripService, logger *util.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) CreateTripHandler(w http.ResponseWriter, r *http.Request) {
	var req createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		util.WriteJSONError(w, "name is required", http.StatusBadRequest)
		return
	}

	detail, err := h.service.Create(r.Context(), CompanyIDFromContext(r.Context()), app.CreateTripInput{
		Name:            req.Name,
		Description:     req.Description,
		ContactInfo:     req.ContactInfo,
		PlannedStart:    req.PlannedStart,
		DriverID:        req.DriverID,
		VehicleID:       req.VehicleID,
		StartAddress:    req.StartAddress,
		StartLatitude:   req.StartLatitude,
		StartLongitude:  req.StartLongitude,
		FinishAddress:   req.FinishAddress,
		FinishLatitude:  req.FinishLatitude,
		FinishLongitude: req.FinishLongitude,
	})
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusCreated, toTripResponse(detail))
}

func (h *Handler) GetTripHandler(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.service.FindOne(r.Context(), tripID, CompanyIDFromContext(r.Context()))
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toTripResponse(detail))
}

func (h *Handler) UpdateTripHandler(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := app.UpdateTripInput{
		Name:            req.Name,
		Description:     req.Description,
		ContactInfo:     req.ContactInfo,
		PlannedStart:    req.PlannedStart,
		StartAddress:    req.StartAddress,
		StartLatitude:   req.StartLatitude,
		StartLongitude:  req.StartLongitude,
		FinishAddress:   req.FinishAddress,
		FinishLatitude:  req.FinishLatitude,
		FinishLongitude: req.FinishLongitude,
	}
	if req.DriverID.set {
		input.DriverID = &req.DriverID.value
	}
	if req.VehicleID.set {
		input.VehicleID = &req.VehicleID.value
	}

	detail, err := h.service.Update(r.Context(), tripID, CompanyIDFromContext(r.Context()), input)
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toTripResponse(detail))
}

func (h *Handler) AssignDriverHandler(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	detail, err := h.service.AssignDriver(r.Context(), tripID, CompanyIDFromContext(r.Context()), req.DriverID)
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toTripResponse(detail))
}

func (h *Handler) AssignVehicleHandler(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	detail, err := h.service.AssignVehicle(r.Context(), tripID, CompanyIDFromContext(r.Context()), req.VehicleID)
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toTripResponse(detail))
}

func (h *Handler) StartTripHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start)
}

func (h *Handler) EndTripHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.End)
}

func (h *Handler) CancelTripHandler(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Cancel)
}

func (h *Handler) TripStatsHandler(w http.ResponseWriter, r *http.Request) {
	tripID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), tripID, CompanyIDFromContext(r.Context()))
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, stats)
}

func (h *Handler) AssignChannelTripHandler(w http.ResponseWriter, r *http.Request) {
	channelID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req assignChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.WriteJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	channel, err := h.service.ReassignChannel(r.Context(), channelID, CompanyIDFromContext(r.Context()), req.TripID)
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, channelResponse{
		ChannelID:      channel.ID,
		PublicToken:    channel.PublicToken,
		AssignedTripID: channel.AssignedTripID,
	})
}

type transitionFunc func(ctx context.Context, tripID, companyID int64) (*app.TripDetail, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	tripID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := fn(r.Context(), tripID, CompanyIDFromContext(r.Context()))
	if err != nil {
		util.ErrResponseInJson(w, err)
		return
	}

	util.ResponseInJson(w, http.StatusOK, toTripResponse(detail))
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		util.WriteJSONError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
