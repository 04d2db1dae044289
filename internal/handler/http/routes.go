package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Get("/api/v1/health", h.health)
		r.Post("/api/v1/auth/register", h.register)
		r.Post("/api/v1/auth/login", h.login)
		r.Post("/api/v1/auth/refresh", h.refresh)
	})

	// bearer-token routes
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Get("/api/v1/sync/pull", h.syncPull)
		r.Post("/api/v1/sync/push", h.syncPush)

		r.Get("/api/v1/devices", h.listDevices)
		r.Get("/api/v1/devices/auth-requests/pending", h.pendingAuthRequests)
		r.Get("/api/v1/devices/commands", h.pollCommands)
		r.Get("/api/v1/devices/commands/history", h.commandHistory)
		r.Post("/api/v1/devices/commands/{id}/ack", h.ackCommand)
		r.Get("/api/v1/devices/{id}", h.getDevice)
		r.Delete("/api/v1/devices/{id}", h.deleteDevice)
		r.Post("/api/v1/devices/{id}/push-token", h.setPushToken)
		r.Post("/api/v1/devices/{id}/auth-request", h.createAuthRequest)
		r.Post("/api/v1/devices/{id}/auth-response", h.respondAuthRequest)
		r.Post("/api/v1/devices/{id}/lock", h.lockDevice)
		r.Post("/api/v1/devices/{id}/wipe", h.wipeDevice)

		r.Post("/api/v1/emergency/contacts", h.addContact)
		r.Get("/api/v1/emergency/contacts", h.listContacts)
		r.Delete("/api/v1/emergency/contacts/{id}", h.removeContact)
		r.Post("/api/v1/emergency/contacts/{id}/accept", h.acceptInvitation)
		r.Post("/api/v1/emergency/request", h.requestAccess)
		r.Get("/api/v1/emergency/requests", h.pendingAccessRequests)
		r.Post("/api/v1/emergency/requests/{id}/deny", h.denyAccessRequest)
		r.Get("/api/v1/emergency/vault", h.vaultAccess)
		r.Get("/api/v1/emergency/granted", h.grantedAccesses)
		r.Get("/api/v1/emergency/logs", h.accessLogs)
	})

	// the WebSocket feed authenticates via its first frame, not a header
	router.Get("/api/v1/sync/notify", h.notify)

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
