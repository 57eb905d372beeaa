package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"compreg-backend/internal/compapi"
	"compreg-backend/internal/domain"
	"compreg-backend/internal/intake"
	"compreg-backend/internal/logger"
	"compreg-backend/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type RegistrationHandler struct {
	svc      service.RegistrationService
	pipeline *intake.Pipeline
	users    compapi.UserAPI
}

func NewRegistrationHandler(svc service.RegistrationService, pipeline *intake.Pipeline, users compapi.UserAPI) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, pipeline: pipeline, users: users}
}

type competingPayload struct {
	Status              *string  `json:"status,omitempty"`
	Comment             *string  `json:"comment,omitempty"`
	AdminComment        *string  `json:"admin_comment,omitempty"`
	EventIDs            []string `json:"event_ids,omitempty"`
	WaitingListPosition *int     `json:"waiting_list_position,omitempty"`
}

type createPayload struct {
	UserID        int32             `json:"user_id"`
	CompetitionID string            `json:"competition_id"`
	Guests        int32             `json:"guests"`
	Competing     *competingPayload `json:"competing"`
}

type updatePayload struct {
	UserID        int32             `json:"user_id"`
	CompetitionID string            `json:"competition_id"`
	Guests        *int32            `json:"guests,omitempty"`
	Competing     *competingPayload `json:"competing,omitempty"`
}

type bulkUpdatePayload struct {
	CompetitionID string          `json:"competition_id"`
	Requests      []updatePayload `json:"requests"`
}

// Create acknowledges the request immediately and hands it to the intake
// pipeline; the caller polls for the outcome.
func (h *RegistrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if payload.Competing == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "you need to supply at least one lane"})
		return
	}
	if payload.UserID == 0 || payload.CompetitionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id and competition_id are required"})
		return
	}

	if !h.selfOrAdmin(w, r, payload.UserID, payload.CompetitionID) {
		return
	}

	req := intake.Request{
		Lane:          "competing",
		CompetitionID: payload.CompetitionID,
		UserID:        payload.UserID,
		EventIDs:      payload.Competing.EventIDs,
		Guests:        payload.Guests,
	}
	if payload.Competing.Comment != nil {
		req.Comment = *payload.Competing.Comment
	}

	if err := h.svc.ValidateCreate(r.Context(), req); err != nil {
		logger.Debug("Create was rejected", "competition_id", payload.CompetitionID, "user_id", payload.UserID, "error", err)
		writeDomainError(w, err)
		return
	}

	if err := h.pipeline.Submit(req); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":     "accepted",
		"message":    "Started Registration Process",
		"request_id": uuid.NewString(),
	})
}

func (h *RegistrationHandler) Show(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	competitionID := vars["competition_id"]
	userID, err := strconv.Atoi(vars["user_id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	if !h.selfOrAdmin(w, r, int32(userID), competitionID) {
		return
	}

	view, err := h.svc.Get(r.Context(), competitionID, int32(userID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *RegistrationHandler) Update(w http.ResponseWriter, r *http.Request) {
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if payload.UserID == 0 || payload.CompetitionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id and competition_id are required"})
		return
	}

	actor := actorFrom(r)
	admin := false
	if actor != payload.UserID {
		var ok bool
		admin, ok = h.requireAdmin(w, r, payload.CompetitionID)
		if !ok {
			return
		}
	} else if err := h.checkSelfUpdateScope(payload); err != nil {
		writeDomainError(w, err)
		return
	}

	view, err := h.svc.Update(r.Context(), toUpdateRequest(payload), service.Actor{UserID: actor, Admin: admin})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "registration": view})
}

func (h *RegistrationHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var payload bulkUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if payload.CompetitionID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "competition_id is required"})
		return
	}
	if _, ok := h.requireAdmin(w, r, payload.CompetitionID); !ok {
		return
	}

	reqs := make([]service.UpdateRequest, 0, len(payload.Requests))
	for _, item := range payload.Requests {
		reqs = append(reqs, toUpdateRequest(item))
	}

	results := h.svc.BulkUpdate(r.Context(), payload.CompetitionID,
		reqs, service.Actor{UserID: actorFrom(r), Admin: true})

	body := make(map[string]bulkResultBody, len(results))
	for userID, result := range results {
		key := strconv.Itoa(int(userID))
		if result.Err != nil {
			item := bulkResultBody{Error: result.Err.Error()}
			var regErr *domain.RegistrationError
			if errors.As(result.Err, &regErr) {
				item.Code = regErr.Code
			}
			body[key] = item
			continue
		}
		body[key] = bulkResultBody{Registration: result.Registration}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "updated_registrations": body})
}

func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	competitionID := mux.Vars(r)["competition_id"]
	views, err := h.svc.List(r.Context(), competitionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RegistrationHandler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	competitionID := mux.Vars(r)["competition_id"]
	if _, ok := h.requireAdmin(w, r, competitionID); !ok {
		return
	}
	views, err := h.svc.ListAdmin(r.Context(), competitionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *RegistrationHandler) Promote(w http.ResponseWriter, r *http.Request) {
	competitionID := mux.Vars(r)["competition_id"]
	if _, ok := h.requireAdmin(w, r, competitionID); !ok {
		return
	}
	promoted, err := h.svc.Promote(r.Context(), competitionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "promoted": promoted})
}

func (h *RegistrationHandler) PaymentTicket(w http.ResponseWriter, r *http.Request) {
	competitionID := mux.Vars(r)["competition_id"]
	actor := actorFrom(r)

	var payload struct {
		DonationISO int64 `json:"donation_iso"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	ticket, status, err := h.svc.PaymentTicket(r.Context(), competitionID, actor, payload.DonationISO, service.Actor{UserID: actor})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"client_secret": ticket.ClientSecret,
		"status":        status,
	})
}

// selfOrAdmin allows competitors to act on their own registration and
// organizers on any registration of their competition.
func (h *RegistrationHandler) selfOrAdmin(w http.ResponseWriter, r *http.Request, userID int32, competitionID string) bool {
	actor := actorFrom(r)
	if actor == userID {
		return true
	}
	allowed, err := h.users.CanAdminister(r.Context(), actor, competitionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "authorization check failed"})
		return false
	}
	if !allowed {
		writeDomainError(w, domain.ErrPermissionDenied)
		return false
	}
	return true
}

func (h *RegistrationHandler) requireAdmin(w http.ResponseWriter, r *http.Request, competitionID string) (bool, bool) {
	allowed, err := h.users.CanAdminister(r.Context(), actorFrom(r), competitionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "authorization check failed"})
		return false, false
	}
	if !allowed {
		writeDomainError(w, domain.ErrPermissionDenied)
		return false, false
	}
	return true, true
}

// checkSelfUpdateScope restricts what competitors can change on their own
// registration: no admin comment, no list reordering, and the only status
// they may request is cancellation or re-joining the waiting list.
func (h *RegistrationHandler) checkSelfUpdateScope(payload updatePayload) error {
	if payload.Competing == nil {
		return nil
	}
	if payload.Competing.AdminComment != nil || payload.Competing.WaitingListPosition != nil {
		return domain.ErrPermissionDenied
	}
	if payload.Competing.Status != nil {
		switch domain.CompetingStatus(*payload.Competing.Status) {
		case domain.StatusCancelled, domain.StatusWaitingList:
		default:
			return domain.ErrPermissionDenied
		}
	}
	return nil
}

func toUpdateRequest(payload updatePayload) service.UpdateRequest {
	req := service.UpdateRequest{
		CompetitionID: payload.CompetitionID,
		UserID:        payload.UserID,
		Competing: domain.CompetingUpdate{
			Guests: payload.Guests,
		},
	}
	if payload.Competing != nil {
		req.Competing.Status = payload.Competing.Status
		req.Competing.Comment = payload.Competing.Comment
		req.Competing.AdminComment = payload.Competing.AdminComment
		req.Competing.EventIDs = payload.Competing.EventIDs
		req.Competing.WaitingListPosition = payload.Competing.WaitingListPosition
	}
	return req
}
