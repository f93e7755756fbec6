package vetsession

import (
	"errors"

	"github.com/MrEthical07/vetsession/jwt"
	"github.com/MrEthical07/vetsession/notify"
	"github.com/MrEthical07/vetsession/session"
)

var (
	// ErrMalformedCredential is returned when a credential does not decode.
	ErrMalformedCredential = jwt.ErrMalformed
	// ErrSessionExpired is returned when a credential is past its expiry.
	ErrSessionExpired = session.ErrSessionExpired
	// ErrEmptyRoleSet is returned when a credential carries no roles.
	ErrEmptyRoleSet = session.ErrEmptyRoleSet
	// ErrStorageRead is returned when the primary store cannot be read.
	ErrStorageRead = session.ErrStorageRead
	// ErrStorageWrite is returned when a store write fails. The session keeps working for the current tab.
	ErrStorageWrite = session.ErrStorageWrite
	// ErrUpstreamFetch is returned when the notification list cannot be fetched.
	ErrUpstreamFetch = notify.ErrUpstreamFetch
	// ErrPartyLookup marks a notification whose party label fell back to the placeholder.
	ErrPartyLookup = notify.ErrPartyLookup
	// ErrNotAuthenticated is returned by operations that need a signed-in session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
)
