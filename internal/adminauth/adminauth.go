// Package adminauth issues and verifies the bearer JWTs used on admin
// routes. A token names an operator and the permission codes they hold;
// user accounts and sessions live outside this service.
package adminauth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Permission codes checked by the admin API.
const (
	PermDevicesManage  = "monitoring.devices.manage"
	PermSettingsView   = "monitoring.settings.view"
	PermSettingsManage = "monitoring.settings.manage"
	PermView           = "monitoring.view"
	PermReportsExport  = "monitoring.reports.export"
)

// AllPermissions is every code above, for operator tokens.
var AllPermissions = []string{
	PermDevicesManage,
	PermSettingsView,
	PermSettingsManage,
	PermView,
	PermReportsExport,
}

const issuer = "campuswatch"

var ErrInvalidToken = errors.New("invalid admin token")

type Claims struct {
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether code was granted.
func (c *Claims) HasPermission(code string) bool {
	return slices.Contains(c.Permissions, code)
}

// PermissionChecker is the collaborator the HTTP layer consults before
// every admin operation.
type PermissionChecker interface {
	HasPermission(c *Claims, code string) bool
}

// ClaimsChecker trusts the permissions embedded in the token.
type ClaimsChecker struct{}

func (ClaimsChecker) HasPermission(c *Claims, code string) bool {
	return c != nil && c.HasPermission(code)
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token for subject holding perms.
func (i *Issuer) Issue(subject string, perms []string) (string, error) {
	now := i.now().UTC()
	claims := Claims{
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, issuer and expiry.
func (i *Issuer) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
