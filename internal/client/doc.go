// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

// Package client implements the headless client runtime: the encrypted
// vault file on disk, key derivation and zeroization around lock and
// unlock, and the pull/push sync conversation with the server.
package client
