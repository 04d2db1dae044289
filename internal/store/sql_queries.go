// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package store

// Users.
const (
	createUser = `INSERT INTO users (id, email, auth_key_hash, kdf_salt)
    VALUES ($1, $2, $3, $4)
    RETURNING id, email, auth_key_hash, kdf_salt, created_at, updated_at;`

	findUserByEmail = `SELECT id, email, auth_key_hash, kdf_salt, created_at, updated_at
    FROM users
    WHERE email = $1;`

	findUserByID = `SELECT id, email, auth_key_hash, kdf_salt, created_at, updated_at
    FROM users
    WHERE id = $1;`
)

// Devices.
const (
	createDevice = `INSERT INTO devices (id, user_id, device_name, device_type, public_key)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id, user_id, device_name, device_type, public_key, push_token, last_seen_at, created_at;`

	findDeviceByID = `SELECT id, user_id, device_name, device_type, public_key, push_token, last_seen_at, created_at
    FROM devices
    WHERE id = $1;`

	findDevicesByUser = `SELECT id, user_id, device_name, device_type, public_key, push_token, last_seen_at, created_at
    FROM devices
    WHERE user_id = $1
    ORDER BY last_seen_at DESC;`

	touchDevice = `UPDATE devices SET last_seen_at = NOW() WHERE id = $1;`

	setDevicePushToken = `UPDATE devices SET push_token = $2 WHERE id = $1;`

	deleteDevice = `DELETE FROM devices WHERE id = $1 AND user_id = $2;`
)

// Refresh tokens.
const (
	createRefreshToken = `INSERT INTO refresh_tokens (id, user_id, device_id, token_hash, expires_at)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id, user_id, device_id, token_hash, expires_at, created_at;`

	findRefreshTokenByHash = `SELECT id, user_id, device_id, token_hash, expires_at, created_at
    FROM refresh_tokens
    WHERE token_hash = $1 AND expires_at > NOW();`

	deleteRefreshToken = `DELETE FROM refresh_tokens WHERE id = $1;`

	deleteExpiredRefreshTokens = `DELETE FROM refresh_tokens WHERE expires_at <= NOW();`
)

// Vault sync. The version counter advance is a single atomic upsert so that
// concurrent pushes from two devices always get distinct versions.
const (
	getSyncVersion = `SELECT current_version
    FROM sync_versions
    WHERE user_id = $1;`

	incrementSyncVersion = `INSERT INTO sync_versions (user_id, current_version, updated_at)
    VALUES ($1, 1, NOW())
    ON CONFLICT (user_id)
    DO UPDATE SET current_version = sync_versions.current_version + 1, updated_at = NOW()
    RETURNING current_version;`

	findVaultItemsSinceVersion = `SELECT id, user_id, version, encrypted_blob_id, modified_at, is_deleted, created_at
    FROM vault_items_sync
    WHERE user_id = $1 AND version > $2
    ORDER BY version ASC
    LIMIT $3;`

	upsertVaultItem = `INSERT INTO vault_items_sync (id, user_id, version, encrypted_blob_id, modified_at, is_deleted)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (id)
    DO UPDATE SET version = $3, encrypted_blob_id = $4, modified_at = $5, is_deleted = $6
    RETURNING id, user_id, version, encrypted_blob_id, modified_at, is_deleted, created_at;`

	findVaultItemByID = `SELECT id, user_id, version, encrypted_blob_id, modified_at, is_deleted, created_at
    FROM vault_items_sync
    WHERE id = $1 AND user_id = $2;`
)

// Auth requests.
const (
	createAuthRequest = `INSERT INTO auth_requests (id, user_id, requester_device_id, target_device_id, challenge, status, expires_at)
    VALUES ($1, $2, $3, $4, $5, 'pending', $6)
    RETURNING id, user_id, requester_device_id, target_device_id, challenge, response, status, expires_at, created_at, responded_at;`

	findAuthRequestByID = `SELECT id, user_id, requester_device_id, target_device_id, challenge, response, status, expires_at, created_at, responded_at
    FROM auth_requests
    WHERE id = $1;`

	findPendingAuthRequestsForDevice = `SELECT id, user_id, requester_device_id, target_device_id, challenge, response, status, expires_at, created_at, responded_at
    FROM auth_requests
    WHERE target_device_id = $1 AND status = 'pending' AND expires_at > NOW()
    ORDER BY created_at DESC;`

	respondAuthRequest = `UPDATE auth_requests
    SET response = $2, status = $3, responded_at = NOW()
    WHERE id = $1;`

	deleteExpiredAuthRequests = `DELETE FROM auth_requests WHERE expires_at <= NOW() AND status = 'pending';`
)

// Emergency contacts.
const (
	createEmergencyContact = `INSERT INTO emergency_contacts (id, user_id, contact_email, contact_name, waiting_period_hours, invitation_token, invitation_expires_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id, user_id, contact_email, contact_name, contact_user_id, status, waiting_period_hours, invitation_token, invitation_expires_at, accepted_at, created_at;`

	findEmergencyContactByID = `SELECT id, user_id, contact_email, contact_name, contact_user_id, status, waiting_period_hours, invitation_token, invitation_expires_at, accepted_at, created_at
    FROM emergency_contacts
    WHERE id = $1;`

	findEmergencyContactsByUser = `SELECT id, user_id, contact_email, contact_name, contact_user_id, status, waiting_period_hours, invitation_token, invitation_expires_at, accepted_at, created_at
    FROM emergency_contacts
    WHERE user_id = $1
    ORDER BY created_at DESC;`

	findEmergencyContactsForContactUser = `SELECT id, user_id, contact_email, contact_name, contact_user_id, status, waiting_period_hours, invitation_token, invitation_expires_at, accepted_at, created_at
    FROM emergency_contacts
    WHERE contact_user_id = $1
    ORDER BY created_at DESC;`

	findEmergencyContactByToken = `SELECT id, user_id, contact_email, contact_name, contact_user_id, status, waiting_period_hours, invitation_token, invitation_expires_at, accepted_at, created_at
    FROM emergency_contacts
    WHERE invitation_token = $1 AND invitation_expires_at > NOW();`

	acceptEmergencyContactInvitation = `UPDATE emergency_contacts
    SET status = 'accepted', contact_user_id = $2, accepted_at = NOW(), invitation_token = NULL
    WHERE id = $1;`

	revokeEmergencyContact = `UPDATE emergency_contacts SET status = 'revoked' WHERE id = $1;`

	deleteEmergencyContact = `DELETE FROM emergency_contacts WHERE id = $1;`
)

// Emergency access requests and logs.
const (
	createAccessRequest = `INSERT INTO emergency_access_requests (id, emergency_contact_id, request_reason, waiting_period_ends_at)
    VALUES ($1, $2, $3, $4)
    RETURNING id, emergency_contact_id, request_reason, status, waiting_period_ends_at, approved_at, denied_at, vault_key_encrypted, created_at;`

	findAccessRequestByID = `SELECT id, emergency_contact_id, request_reason, status, waiting_period_ends_at, approved_at, denied_at, vault_key_encrypted, created_at
    FROM emergency_access_requests
    WHERE id = $1;`

	findPendingAccessRequestsForUser = `SELECT ear.id, ear.emergency_contact_id, ear.request_reason, ear.status, ear.waiting_period_ends_at, ear.approved_at, ear.denied_at, ear.vault_key_encrypted, ear.created_at
    FROM emergency_access_requests ear
    JOIN emergency_contacts ec ON ear.emergency_contact_id = ec.id
    WHERE ec.user_id = $1 AND ear.status = 'pending'
    ORDER BY ear.created_at DESC;`

	findAccessRequestsByContact = `SELECT id, emergency_contact_id, request_reason, status, waiting_period_ends_at, approved_at, denied_at, vault_key_encrypted, created_at
    FROM emergency_access_requests
    WHERE emergency_contact_id = $1
    ORDER BY created_at DESC;`

	denyAccessRequest = `UPDATE emergency_access_requests
    SET status = 'denied', denied_at = NOW()
    WHERE id = $1;`

	approveAccessRequest = `UPDATE emergency_access_requests
    SET status = 'approved', approved_at = NOW(), vault_key_encrypted = $2
    WHERE id = $1;`

	// A pending request whose waiting period has passed stays pending so
	// the contact's next poll can auto-approve it. Only requests the
	// contact abandoned for a month past that point are reaped.
	expireAbandonedAccessRequests = `UPDATE emergency_access_requests
    SET status = 'expired'
    WHERE status = 'pending' AND waiting_period_ends_at <= NOW() - INTERVAL '30 days';`

	createAccessLog = `INSERT INTO emergency_access_logs (id, user_id, emergency_contact_id, action, details)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id, user_id, emergency_contact_id, action, details, created_at;`

	findAccessLogsForUser = `SELECT id, user_id, emergency_contact_id, action, details, created_at
    FROM emergency_access_logs
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2;`
)

// Remote commands.
const (
	createRemoteCommand = `INSERT INTO remote_commands (id, user_id, target_device_id, issued_by_device_id, command_type)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id, user_id, target_device_id, issued_by_device_id, command_type, status, created_at, delivered_at, executed_at;`

	findCommandByID = `SELECT id, user_id, target_device_id, issued_by_device_id, command_type, status, created_at, delivered_at, executed_at
    FROM remote_commands
    WHERE id = $1;`

	findPendingCommandsForDevice = `SELECT id, user_id, target_device_id, issued_by_device_id, command_type, status, created_at, delivered_at, executed_at
    FROM remote_commands
    WHERE target_device_id = $1 AND status = 'pending'
    ORDER BY created_at ASC;`

	markCommandsDelivered = `UPDATE remote_commands
    SET status = 'delivered', delivered_at = NOW()
    WHERE target_device_id = $1 AND status = 'pending';`

	updateCommandStatus = `UPDATE remote_commands
    SET status = $2, executed_at = $3
    WHERE id = $1;`

	findCommandsForUser = `SELECT id, user_id, target_device_id, issued_by_device_id, command_type, status, created_at, delivered_at, executed_at
    FROM remote_commands
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2;`
)
