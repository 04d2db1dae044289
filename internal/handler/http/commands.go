package http

import (
	"encoding/json"
	"net/http"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/utils"
	"github.com/keydrop/keydrop/models"
)

func (h *Handler) lockDevice(w http.ResponseWriter, r *http.Request) {
	h.sendCommand(w, r, models.CommandLock)
}

func (h *Handler) wipeDevice(w http.ResponseWriter, r *http.Request) {
	h.sendCommand(w, r, models.CommandWipe)
}

// sendCommand queues a remote command against the device named in the
// path and answers with the queued command's id.
func (h *Handler) sendCommand(w http.ResponseWriter, r *http.Request, kind string) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.sendCommand").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	targetID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed device id in path")
		utils.WriteError(w, "malformed device id", http.StatusBadRequest)
		return
	}

	command, err := h.services.CommandService.SendCommand(ctx, userID, deviceID, targetID, kind)
	if err != nil {
		log.Err(err).Str("func", "*Handler.sendCommand").Str("command", kind).Msg("error queueing remote command")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.LockDeviceResponse{Success: true, CommandID: command.ID}, http.StatusOK)
}

func (h *Handler) pollCommands(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.pollCommands").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	commands, err := h.services.CommandService.PollCommands(ctx, userID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.pollCommands").Msg("error polling remote commands")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, commands, http.StatusOK)
}

func (h *Handler) ackCommand(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, deviceID, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.ackCommand").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	commandID, err := pathID(r)
	if err != nil {
		log.Err(err).Msg("malformed command id in path")
		utils.WriteError(w, "malformed command id", http.StatusBadRequest)
		return
	}

	var req models.AckCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Msg("Invalid JSON was passed")
		utils.WriteError(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.CommandService.AckCommand(ctx, userID, deviceID, commandID, req.Success); err != nil {
		log.Err(err).Str("func", "*Handler.ackCommand").Msg("error acknowledging remote command")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, models.SuccessResponse{Success: true}, http.StatusOK)
}

func (h *Handler) commandHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, _, ok := requestIdentity(r)
	if !ok {
		log.Error().Str("func", "*Handler.commandHistory").Msg("no verified claims in context")
		utils.WriteError(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	history, err := h.services.CommandService.CommandHistory(ctx, userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.commandHistory").Msg("error listing command history")
		status, msg := publicError(err)
		utils.WriteError(w, msg, status)
		return
	}

	utils.WriteJSON(w, history, http.StatusOK)
}
