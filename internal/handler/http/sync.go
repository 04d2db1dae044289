package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/utils"
	"github.com/keydrop/keydrop/models"
)

func (h *Handler) syncPull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.syncPull").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	sinceVersion, err := queryInt64(r, "since_version", 0)
	if err != nil {
		log.Err(err).Msg("malformed since_version parameter")
		utils.WriteError(w, "since_version must be an integer", http.StatusBadRequest)
		return
	}

	limit, err := queryInt64(r, "limit", 0)
	if err != nil {
		log.Err(err).Msg("malformed limit parameter")
		utils.WriteError(w, "limit must be an integer", http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.Pull(ctx, userID, deviceID, sinceVersion, int(limit))
	if err != nil {
		log.Err(err).Str("func", "*Handler.syncPull").Msg("error pulling vault changes")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) syncPush(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.syncPush").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var pushRequest models.SyncPushRequest
	if err := json.NewDecoder(r.Body).Decode(&pushRequest); err != nil {
		log.Err(err).Str("func", "*Handler.syncPush").Msg("Invalid JSON was passed")
		utils.WriteError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	response, err := h.services.SyncService.Push(ctx, userID, deviceID, pushRequest)
	if err != nil {
		log.Err(err).Str("func", "*Handler.syncPush").Msg("error pushing vault changes")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

// queryInt64 reads an optional integer query parameter, falling back to
// def when the parameter is absent.
func queryInt64(r *http.Request, name string, def int64) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
