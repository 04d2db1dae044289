package http

import (
	"encoding/json"
	"net/http"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/utils"
	"github.com/keydrop/keydrop/models"
)

func (h *Handler) addContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.addContact").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.AddContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	contact, err := h.services.EmergencyService.AddContact(ctx, userID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.addContact").Msg("error adding emergency contact")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, contact, http.StatusOK)
}

func (h *Handler) listContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.listContacts").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	contacts, err := h.services.EmergencyService.ListContacts(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listContacts").Msg("error listing emergency contacts")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, contacts, http.StatusOK)
}

func (h *Handler) removeContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.removeContact").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	contactID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed contact id in path")
		utils.WriteError(w, "malformed contact id", http.StatusBadRequest)
		return
	}

	if err := h.services.EmergencyService.RemoveContact(ctx, userID, contactID); err != nil {
		log.Err(err).Str("func", "*Handler.removeContact").Msg("error removing emergency contact")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) acceptInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.acceptInvitation").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	contactID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed contact id in path")
		utils.WriteError(w, "malformed contact id", http.StatusBadRequest)
		return
	}

	var req models.AcceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.EmergencyService.AcceptInvitation(ctx, userID, contactID, req.Token); err != nil {
		log.Err(err).Str("func", "*Handler.acceptInvitation").Msg("error accepting contact invitation")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) requestAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.requestAccess").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req models.EmergencyRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.EmergencyService.RequestAccess(ctx, userID, req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.requestAccess").Msg("error opening emergency access request")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) pendingAccessRequests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.pendingAccessRequests").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	requests, err := h.services.EmergencyService.PendingRequests(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pendingAccessRequests").Msg("error listing pending access requests")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, requests, http.StatusOK)
}

func (h *Handler) denyAccessRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.denyAccessRequest").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	requestID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed request id in path")
		utils.WriteError(w, "malformed request id", http.StatusBadRequest)
		return
	}

	if err := h.services.EmergencyService.DenyRequest(ctx, userID, requestID); err != nil {
		log.Err(err).Str("func", "*Handler.denyAccessRequest").Msg("error denying access request")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) vaultAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.vaultAccess").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	granted, err := h.services.EmergencyService.VaultAccess(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.vaultAccess").Msg("error resolving vault access")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, granted, http.StatusOK)
}

func (h *Handler) grantedAccesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.grantedAccesses").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	granted, err := h.services.EmergencyService.GrantedAccesses(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.grantedAccesses").Msg("error listing granted accesses")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, granted, http.StatusOK)
}

func (h *Handler) accessLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.accessLogs").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	logs, err := h.services.EmergencyService.AccessLogs(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.accessLogs").Msg("error listing access logs")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, logs, http.StatusOK)
}
