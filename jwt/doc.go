// Package jwt decodes portal bearer credentials into structured claims and normalizes the
// role claim into a [RoleSet].
//
// Decoding is pure: no network, storage, or clock access. Expiry checks take the current
// time from the caller.
package jwt
