package http

import (
	"errors"
	"net/http"

	"github.com/keydrop/keydrop/internal/service"
	"github.com/keydrop/keydrop/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:  http.StatusBadRequest,
	service.ErrOwnDeviceTarget:      http.StatusBadRequest,
	service.ErrRequestNotPending:    http.StatusBadRequest,
	service.ErrContactNotAccepted:   http.StatusBadRequest,
	service.ErrPendingRequestExists: http.StatusBadRequest,
	service.ErrUnknownCommand:       http.StatusBadRequest,

	service.ErrInvalidCredentials: http.StatusUnauthorized,
	service.ErrInvalidToken:       http.StatusUnauthorized,
	service.ErrTokenIsExpired:     http.StatusUnauthorized,

	store.ErrUserNotFound:          http.StatusNotFound,
	store.ErrDeviceNotFound:        http.StatusNotFound,
	store.ErrVaultItemNotFound:     http.StatusNotFound,
	store.ErrAuthRequestNotFound:   http.StatusNotFound,
	store.ErrContactNotFound:       http.StatusNotFound,
	store.ErrAccessRequestNotFound: http.StatusNotFound,
	store.ErrCommandNotFound:       http.StatusNotFound,

	store.ErrRefreshTokenNotFound: http.StatusUnauthorized,
	store.ErrEmailAlreadyExists:   http.StatusConflict,

	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
	store.ErrScanningRows:         http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// publicError resolves the HTTP status for err along with a message safe
// to show the caller: the matched sentinel's text for client errors, the
// generic status text otherwise. Wrapping context never leaves the server.
func publicError(err error) (int, string) {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			if status >= http.StatusInternalServerError {
				return status, http.StatusText(status)
			}
			return status, target.Error()
		}
	}
	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
