// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/utils"
	"github.com/keydrop/keydrop/models"
)

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.listDevices").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	devices, err := h.services.DeviceService.ListDevices(ctx, userID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listDevices").Msg("error listing devices")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, devices, http.StatusOK)
}

func (h *Handler) getDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.getDevice").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed device id in path")
		utils.WriteError(w, "malformed device id", http.StatusBadRequest)
		return
	}

	device, err := h.services.DeviceService.GetDevice(ctx, userID, targetID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getDevice").Msg("error fetching device")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, device, http.StatusOK)
}

func (h *Handler) deleteDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.deleteDevice").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed device id in path")
		utils.WriteError(w, "malformed device id", http.StatusBadRequest)
		return
	}

	if err := h.services.DeviceService.DeleteDevice(ctx, userID, targetID, deviceID); err != nil {
		log.Err(err).Str("func", "*Handler.deleteDevice").Msg("error revoking device")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) setPushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.setPushToken").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed device id in path")
		utils.WriteError(w, "malformed device id", http.StatusBadRequest)
		return
	}

	var req models.PushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.DeviceService.SetPushToken(ctx, userID, targetID, req.PushToken); err != nil {
		log.Err(err).Str("func", "*Handler.setPushToken").Msg("error storing push token")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) createAuthRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.createAuthRequest").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed device id in path")
		utils.WriteError(w, "malformed device id", http.StatusBadRequest)
		return
	}

	challenge, err := h.services.DeviceService.CreateAuthRequest(ctx, userID, deviceID, targetID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.createAuthRequest").Msg("error opening auth request")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, challenge, http.StatusOK)
}

func (h *Handler) respondAuthRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.respondAuthRequest").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	// the path id names the responding device, i.e. the challenge target
	targetID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed device id in path")
		utils.WriteError(w, "malformed device id", http.StatusBadRequest)
		return
	}

	var req models.AuthRespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.DeviceService.RespondAuthRequest(ctx, userID, targetID, req); err != nil {
		log.Err(err).Str("func", "*Handler.respondAuthRequest").Msg("error answering auth request")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) pendingAuthRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.pendingAuthRequests").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	pending, err := h.services.DeviceService.PendingAuthRequests(ctx, userID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pendingAuthRequests").Msg("error listing pending auth requests")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, pending, http.StatusOK)
}

// pathID parses the {id} route parameter as a UUID.
func pathID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}
