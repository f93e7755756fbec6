package jwt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a credential cannot be decoded into claims.
var ErrMalformed = errors.New("malformed credential")

// roleClaimURI is the long-form role claim emitted by ASP.NET identity issuers.
const roleClaimURI = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Contact holds the structured contact fields carried in the payload.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Claims is the decoded payload of a bearer credential.
//
// Claims are never stored; they are recomputed from the credential on every load.
type Claims struct {
	Subject   string
	Name      string
	Contact   Contact
	Roles     RoleSet
	IssuedAt  int64
	ExpiresAt int64
}

type payload struct {
	Subject    json.RawMessage  `json:"sub"`
	ID         json.RawMessage  `json:"id"`
	UserID     json.RawMessage  `json:"userId"`
	Name       json.RawMessage  `json:"name"`
	UniqueName json.RawMessage  `json:"unique_name"`
	Username   json.RawMessage  `json:"username"`
	Email      json.RawMessage  `json:"email"`
	Phone      json.RawMessage  `json:"phone"`
	PhoneNum   json.RawMessage  `json:"phone_number"`
	Role       json.RawMessage  `json:"role"`
	Roles      json.RawMessage  `json:"roles"`
	IssuedAt   *jwt.NumericDate `json:"iat"`
	ExpiresAt  *jwt.NumericDate `json:"exp"`
}

// roleURIPayload captures claims keyed by URI.
type roleURIPayload map[string]json.RawMessage

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode splits raw into its three segments and decodes the payload segment into [Claims].
//
// The header and signature are not verified: the client holds no verification key and the
// upstream API remains the authority. Decode performs no I/O and does not read the clock.
func Decode(raw string) (*Claims, error) {
	parts := strings.Split(strings.TrimSpace(raw), ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(parts))
	}

	data, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload encoding: %v", ErrMalformed, err)
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: payload json: %v", ErrMalformed, err)
	}
	if p.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrMalformed)
	}

	roleRaw := p.Role
	if isEmptyRaw(roleRaw) {
		roleRaw = p.Roles
	}
	if isEmptyRaw(roleRaw) {
		var extra roleURIPayload
		if err := json.Unmarshal(data, &extra); err == nil {
			roleRaw = extra[roleClaimURI]
		}
	}

	roles, err := normalizeRoles(roleRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: role claim: %v", ErrMalformed, err)
	}

	claims := &Claims{
		Subject: firstNonEmpty(rawScalar(p.Subject), rawScalar(p.ID), rawScalar(p.UserID)),
		Name:    firstNonEmpty(rawScalar(p.Name), rawScalar(p.UniqueName), rawScalar(p.Username)),
		Contact: Contact{
			Email: rawScalar(p.Email),
			Phone: firstNonEmpty(rawScalar(p.PhoneNum), rawScalar(p.Phone)),
		},
		Roles:     roles,
		ExpiresAt: p.ExpiresAt.Unix(),
	}
	if p.IssuedAt != nil {
		claims.IssuedAt = p.IssuedAt.Unix()
	}

	return claims, nil
}

// IsExpired reports whether now is at or past the claims expiry. Nil claims are expired.
func IsExpired(claims *Claims, now time.Time) bool {
	if claims == nil {
		return true
	}
	return now.Unix() >= claims.ExpiresAt
}

// ExpiresIn returns the time remaining until expiry, or zero when already expired.
func ExpiresIn(claims *Claims, now time.Time) time.Duration {
	if IsExpired(claims, now) {
		return 0
	}
	return time.Unix(claims.ExpiresAt, 0).Sub(now)
}

func isEmptyRaw(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// rawScalar renders a JSON string or number as text; anything else yields "". Identity
// claims go through it so an unexpected shape never fails the decode.
func rawScalar(raw json.RawMessage) string {
	if isEmptyRaw(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
