package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
	"github.com/keydrop/keydrop/internal/store"
	"github.com/keydrop/keydrop/models"
)

// invitationTokenSize is the entropy of a contact invitation token in
// bytes. The token travels in URLs, so it is base64url-encoded.
const invitationTokenSize = 32

// accessLogPageSize caps the audit page returned to the owner.
const accessLogPageSize = 100

// emergencyService is the concrete implementation of EmergencyService.
// It runs the dead-man's-switch flow: a vault owner names trusted
// contacts, an accepted contact may request access, and the request is
// approved automatically once the owner's waiting period passes without
// a denial. Every step lands in an append-only audit log keyed to the
// owner.
type emergencyService struct {
	emergency store.EmergencyRepository
	users     store.UserRepository
	bus       *notify.Bus
	logger    *logger.Logger
}

// NewEmergencyService constructs an EmergencyService over the given
// repositories.
func NewEmergencyService(repos *store.Repositories, bus *notify.Bus, logger *logger.Logger) EmergencyService {
	return &emergencyService{
		emergency: repos.EmergencyRepository,
		users:     repos.UserRepository,
		bus:       bus,
		logger:    logger,
	}
}

// AddContact invites a trusted person by email. The invitation token
// stays claimable for seven days; the waiting period defaults to 48
// hours when the owner does not pick one.
func (e *emergencyService) AddContact(ctx context.Context, userID uuid.UUID, req models.AddContactRequest) (models.EmergencyContact, error) {
	log := logger.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return models.EmergencyContact{}, ErrInvalidDataProvided
	}

	token, err := newInvitationToken()
	if err != nil {
		log.Err(err).Msg("generating invitation token failed")
		return models.EmergencyContact{}, fmt.Errorf("generating invitation token failed: %w", err)
	}

	waitingPeriod := models.DefaultWaitingPeriodHours
	if req.WaitingPeriodHours != nil && *req.WaitingPeriodHours > 0 {
		waitingPeriod = *req.WaitingPeriodHours
	}

	contact, err := e.emergency.CreateContact(ctx, models.EmergencyContact{
		UserID:             userID,
		ContactEmail:       email,
		ContactName:        req.Name,
		Status:             models.EmergencyContactPending,
		WaitingPeriodHours: waitingPeriod,
		InvitationToken:    token,
		InvitationExpires:  time.Now().Add(models.DefaultInvitationTTL),
	})
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("creating emergency contact failed")
		return models.EmergencyContact{}, fmt.Errorf("creating emergency contact failed: %w", err)
	}

	e.audit(ctx, userID, &contact.ID, models.EmergencyLogContactAdded, email)

	log.Info().Str("user_id", userID.String()).Str("contact_id", contact.ID.String()).Msg("emergency contact invited")
	return contact, nil
}

// ListContacts returns the owner's contacts, all statuses included.
func (e *emergencyService) ListContacts(ctx context.Context, userID uuid.UUID) ([]models.EmergencyContact, error) {
	log := logger.FromContext(ctx)

	contacts, err := e.emergency.FindContactsByUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("listing emergency contacts failed")
		return nil, fmt.Errorf("listing emergency contacts failed: %w", err)
	}
	return contacts, nil
}

// RemoveContact takes one of the owner's contacts out of service. An
// accepted contact is revoked so its history stays on record; a contact
// that never accepted is deleted outright, open invitation and all.
func (e *emergencyService) RemoveContact(ctx context.Context, userID, contactID uuid.UUID) error {
	log := logger.FromContext(ctx)

	contact, err := e.ownedContact(ctx, userID, contactID)
	if err != nil {
		return err
	}

	if contact.Status == models.EmergencyContactAccepted {
		if err := e.emergency.RevokeContact(ctx, contactID); err != nil {
			log.Err(err).Str("contact_id", contactID.String()).Msg("revoking emergency contact failed")
			return fmt.Errorf("revoking emergency contact failed: %w", err)
		}
	} else if err := e.emergency.DeleteContact(ctx, contactID); err != nil {
		log.Err(err).Str("contact_id", contactID.String()).Msg("deleting emergency contact failed")
		return fmt.Errorf("deleting emergency contact failed: %w", err)
	}

	e.audit(ctx, userID, nil, models.EmergencyLogContactRemoved, contact.ContactEmail)

	log.Info().Str("user_id", userID.String()).Str("contact_id", contactID.String()).Msg("emergency contact removed")
	return nil
}

// AcceptInvitation claims a contact invitation by token, linking the
// calling account as the contact. The token must belong to the contact
// entry named in the request; expired or already-claimed tokens read as
// store.ErrContactNotFound, and a vault owner cannot claim their own
// invitation.
func (e *emergencyService) AcceptInvitation(ctx context.Context, userID, contactID uuid.UUID, token string) error {
	log := logger.FromContext(ctx)

	if token == "" {
		return ErrInvalidDataProvided
	}

	contact, err := e.emergency.FindContactByToken(ctx, token)
	if err != nil {
		log.Err(err).Msg("invitation token lookup failed")
		return fmt.Errorf("invitation token lookup failed: %w", err)
	}

	if contact.ID != contactID {
		log.Warn().Str("contact_id", contactID.String()).Msg("invitation token does not match the contact entry")
		return fmt.Errorf("invitation token lookup failed: %w", store.ErrContactNotFound)
	}

	if contact.UserID == userID {
		log.Warn().Str("contact_id", contact.ID.String()).Msg("owner tried to accept own invitation")
		return ErrInvalidDataProvided
	}

	if err := e.emergency.AcceptInvitation(ctx, contact.ID, userID); err != nil {
		log.Err(err).Str("contact_id", contact.ID.String()).Msg("accepting invitation failed")
		return fmt.Errorf("accepting invitation failed: %w", err)
	}

	e.audit(ctx, contact.UserID, &contact.ID, models.EmergencyLogInvitationAccepted, contact.ContactEmail)

	e.bus.Publish(models.SyncNotification{
		Kind:   models.NotifyEmergencyContactAccepted,
		UserID: contact.UserID,
	})

	log.Info().Str("contact_id", contact.ID.String()).Str("contact_user_id", userID.String()).Msg("invitation accepted")
	return nil
}

// RequestAccess opens an access request against a vault the caller is
// an accepted contact for. One request may be pending per contact at a
// time; it auto-approves once the waiting period ends unless the owner
// denies it first.
func (e *emergencyService) RequestAccess(ctx context.Context, userID uuid.UUID, req models.EmergencyRequestRequest) (models.EmergencyRequestResponse, error) {
	log := logger.FromContext(ctx)

	contact, err := e.contactForContactUser(ctx, userID, req.EmergencyContactID)
	if err != nil {
		return models.EmergencyRequestResponse{}, err
	}

	if contact.Status != models.EmergencyContactAccepted {
		return models.EmergencyRequestResponse{}, ErrContactNotAccepted
	}

	existing, err := e.emergency.FindAccessRequestsByContact(ctx, contact.ID)
	if err != nil {
		log.Err(err).Str("contact_id", contact.ID.String()).Msg("listing access requests failed")
		return models.EmergencyRequestResponse{}, fmt.Errorf("listing access requests failed: %w", err)
	}
	for _, r := range existing {
		if r.Status == models.EmergencyAccessPending {
			return models.EmergencyRequestResponse{}, ErrPendingRequestExists
		}
	}

	request, err := e.emergency.CreateAccessRequest(ctx, models.EmergencyAccessRequest{
		ContactID:           contact.ID,
		Reason:              req.Reason,
		Status:              models.EmergencyAccessPending,
		WaitingPeriodEndsAt: time.Now().Add(time.Duration(contact.WaitingPeriodHours) * time.Hour),
	})
	if err != nil {
		log.Err(err).Str("contact_id", contact.ID.String()).Msg("creating access request failed")
		return models.EmergencyRequestResponse{}, fmt.Errorf("creating access request failed: %w", err)
	}

	e.audit(ctx, contact.UserID, &contact.ID, models.EmergencyLogAccessRequested, contact.ContactEmail)

	e.bus.Publish(models.SyncNotification{
		Kind:   models.NotifyEmergencyAccessRequested,
		UserID: contact.UserID,
	})

	log.Info().Str("request_id", request.ID.String()).Str("contact_id", contact.ID.String()).Msg("emergency access requested")

	return models.EmergencyRequestResponse{
		RequestID:           request.ID,
		Status:              request.Status,
		WaitingPeriodEndsAt: request.WaitingPeriodEndsAt,
		CreatedAt:           request.CreatedAt,
	}, nil
}

// PendingRequests returns the open requests against the owner's vault.
func (e *emergencyService) PendingRequests(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessRequest, error) {
	log := logger.FromContext(ctx)

	requests, err := e.emergency.FindPendingAccessRequestsForUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("listing pending access requests failed")
		return nil, fmt.Errorf("listing pending access requests failed: %w", err)
	}
	return requests, nil
}

// DenyRequest lets the owner shut down a pending request before the
// waiting period runs out. Requests that already reached a final status
// cannot be denied.
func (e *emergencyService) DenyRequest(ctx context.Context, userID, requestID uuid.UUID) error {
	log := logger.FromContext(ctx)

	request, err := e.emergency.FindAccessRequestByID(ctx, requestID)
	if err != nil {
		log.Err(err).Str("request_id", requestID.String()).Msg("access request lookup failed")
		return fmt.Errorf("access request lookup failed: %w", err)
	}

	contact, err := e.ownedContact(ctx, userID, request.ContactID)
	if err != nil {
		return err
	}

	if request.Status != models.EmergencyAccessPending {
		return ErrRequestNotPending
	}

	if err := e.emergency.DenyAccessRequest(ctx, requestID); err != nil {
		log.Err(err).Str("request_id", requestID.String()).Msg("denying access request failed")
		return fmt.Errorf("denying access request failed: %w", err)
	}

	e.audit(ctx, userID, &contact.ID, models.EmergencyLogAccessDenied, contact.ContactEmail)

	e.bus.Publish(models.SyncNotification{
		Kind:   models.NotifyEmergencyAccessDenied,
		UserID: userID,
	})

	log.Info().Str("request_id", requestID.String()).Msg("emergency access denied")
	return nil
}

// VaultAccess is the contact's polling endpoint. Pending requests whose
// waiting period has run out are approved on the spot, then every
// approved grant the caller holds is returned. The approval carries no
// key material: unwrapping the vault key happens entirely client-side.
func (e *emergencyService) VaultAccess(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error) {
	log := logger.FromContext(ctx)

	contacts, err := e.emergency.FindContactsForContactUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("listing contact links failed")
		return nil, fmt.Errorf("listing contact links failed: %w", err)
	}

	now := time.Now()
	for _, contact := range contacts {
		requests, err := e.emergency.FindAccessRequestsByContact(ctx, contact.ID)
		if err != nil {
			log.Err(err).Str("contact_id", contact.ID.String()).Msg("listing access requests failed")
			return nil, fmt.Errorf("listing access requests failed: %w", err)
		}
		for _, request := range requests {
			if !request.AutoApprovable(now) {
				continue
			}
			if err := e.emergency.ApproveAccessRequest(ctx, request.ID, ""); err != nil {
				log.Err(err).Str("request_id", request.ID.String()).Msg("auto-approving access request failed")
				return nil, fmt.Errorf("auto-approving access request failed: %w", err)
			}

			e.audit(ctx, contact.UserID, &contact.ID, models.EmergencyLogAccessAutoApproved, contact.ContactEmail)

			e.bus.Publish(models.SyncNotification{
				Kind:   models.NotifyEmergencyAccessApproved,
				UserID: contact.UserID,
			})

			log.Info().Str("request_id", request.ID.String()).Msg("emergency access auto-approved")
		}
	}

	return e.grantedFor(ctx, contacts)
}

// GrantedAccesses returns the approved grants the caller holds, without
// triggering any auto-approval.
func (e *emergencyService) GrantedAccesses(ctx context.Context, userID uuid.UUID) ([]models.GrantedAccess, error) {
	log := logger.FromContext(ctx)

	contacts, err := e.emergency.FindContactsForContactUser(ctx, userID)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("listing contact links failed")
		return nil, fmt.Errorf("listing contact links failed: %w", err)
	}
	return e.grantedFor(ctx, contacts)
}

// AccessLogs returns the owner's audit trail, newest first.
func (e *emergencyService) AccessLogs(ctx context.Context, userID uuid.UUID) ([]models.EmergencyAccessLog, error) {
	log := logger.FromContext(ctx)

	entries, err := e.emergency.FindAccessLogsForUser(ctx, userID, accessLogPageSize)
	if err != nil {
		log.Err(err).Str("user_id", userID.String()).Msg("listing access logs failed")
		return nil, fmt.Errorf("listing access logs failed: %w", err)
	}
	return entries, nil
}

// grantedFor collects the approved requests across the given contact
// links, resolving each owner's email for display.
func (e *emergencyService) grantedFor(ctx context.Context, contacts []models.EmergencyContact) ([]models.GrantedAccess, error) {
	log := logger.FromContext(ctx)

	granted := make([]models.GrantedAccess, 0)
	for _, contact := range contacts {
		requests, err := e.emergency.FindAccessRequestsByContact(ctx, contact.ID)
		if err != nil {
			log.Err(err).Str("contact_id", contact.ID.String()).Msg("listing access requests failed")
			return nil, fmt.Errorf("listing access requests failed: %w", err)
		}

		var ownerEmail string
		if owner, err := e.users.FindUserByID(ctx, contact.UserID); err == nil {
			ownerEmail = owner.Email
		}

		for _, request := range requests {
			if request.Status != models.EmergencyAccessApproved {
				continue
			}
			granted = append(granted, models.GrantedAccess{
				RequestID:         request.ID,
				ContactID:         contact.ID,
				OwnerUserID:       contact.UserID,
				OwnerEmail:        ownerEmail,
				Status:            request.Status,
				ApprovedAt:        request.ApprovedAt,
				VaultKeyEncrypted: request.VaultKeyEncrypted,
			})
		}
	}
	return granted, nil
}

// ownedContact loads a contact and checks the caller owns it. Foreign
// contacts read as store.ErrContactNotFound.
func (e *emergencyService) ownedContact(ctx context.Context, userID, contactID uuid.UUID) (models.EmergencyContact, error) {
	log := logger.FromContext(ctx)

	contact, err := e.emergency.FindContactByID(ctx, contactID)
	if err != nil {
		log.Err(err).Str("contact_id", contactID.String()).Msg("contact lookup failed")
		return models.EmergencyContact{}, fmt.Errorf("contact lookup failed: %w", err)
	}
	if contact.UserID != userID {
		log.Warn().Str("contact_id", contactID.String()).Msg("contact belongs to another user")
		return models.EmergencyContact{}, fmt.Errorf("contact lookup failed: %w", store.ErrContactNotFound)
	}
	return contact, nil
}

// contactForContactUser loads a contact link and checks the caller is
// the linked contact person.
func (e *emergencyService) contactForContactUser(ctx context.Context, userID, contactID uuid.UUID) (models.EmergencyContact, error) {
	log := logger.FromContext(ctx)

	contact, err := e.emergency.FindContactByID(ctx, contactID)
	if err != nil {
		log.Err(err).Str("contact_id", contactID.String()).Msg("contact lookup failed")
		return models.EmergencyContact{}, fmt.Errorf("contact lookup failed: %w", err)
	}
	if contact.ContactUserID == nil || *contact.ContactUserID != userID {
		log.Warn().Str("contact_id", contactID.String()).Msg("caller is not the linked contact")
		return models.EmergencyContact{}, fmt.Errorf("contact lookup failed: %w", store.ErrContactNotFound)
	}
	return contact, nil
}

// audit appends one log row. Audit writes are best-effort: a failed
// insert is logged and the operation proceeds.
func (e *emergencyService) audit(ctx context.Context, ownerID uuid.UUID, contactID *uuid.UUID, action, details string) {
	_, err := e.emergency.CreateAccessLog(ctx, models.EmergencyAccessLog{
		UserID:    ownerID,
		ContactID: contactID,
		Action:    action,
		Details:   details,
	})
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("action", action).Msg("writing access log failed")
	}
}

func newInvitationToken() (string, error) {
	buf := make([]byte, invitationTokenSize)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
