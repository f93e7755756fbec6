package jwt

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IssuerConfig configures an [Issuer] that mints HS256 credentials for local runs and tests.
type IssuerConfig struct {
	TTL    time.Duration
	Secret []byte
	Issuer string
	// RoleAsString encodes the role claim as a comma-separated string instead of an array,
	// matching the older API build.
	RoleAsString bool
}

// Issuer mints HS256 credentials in the shape the portal API issues them.
//
// It exists for local development and tests; production credentials always come from the API.
type Issuer struct {
	config IssuerConfig
	now    func() time.Time
}

type issuedClaims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone_number,omitempty"`
	Role  any    `json:"role"`
	jwt.RegisteredClaims
}

// NewIssuer validates cfg and returns an [Issuer].
func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if len(cfg.Secret) == 0 {
		return nil, errors.New("hs256 requires secret")
	}
	cfg.Issuer = strings.TrimSpace(cfg.Issuer)
	return &Issuer{config: cfg, now: time.Now}, nil
}

// Issue signs a credential for subject holding roles.
func (i *Issuer) Issue(subject, name string, contact Contact, roles ...string) (string, error) {
	now := i.now()
	return i.sign(subject, name, contact, now, now.Add(i.config.TTL), roles)
}

// IssueExpiring signs a credential with an explicit expiry, which may lie in the past.
func (i *Issuer) IssueExpiring(subject string, expiresAt time.Time, roles ...string) (string, error) {
	return i.sign(subject, "", Contact{}, i.now(), expiresAt, roles)
}

func (i *Issuer) sign(subject, name string, contact Contact, issuedAt, expiresAt time.Time, roles []string) (string, error) {
	var role any = roles
	if i.config.RoleAsString {
		role = strings.Join(roles, ",")
	}

	claims := issuedClaims{
		Name:  name,
		Email: contact.Email,
		Phone: contact.Phone,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.config.Secret)
}
