package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AdminCookie carries the operator session marker.
const AdminCookie = "admin_session"

// AdminSessionTTL bounds the operator session.
const AdminSessionTTL = 7 * 24 * time.Hour

// AccessCookieName is the viewer marker cookie for one raid.
func AccessCookieName(raid string) string {
	return "raid_access_" + raid
}

// viewerClaims scope a viewer marker to one (raid, day).
type viewerClaims struct {
	Raid string `json:"raid"`
	Day  string `json:"day"`
	jwt.RegisteredClaims
}

// Manager issues and verifies signed session markers. Viewer markers are
// self-contained; admin markers additionally register a server-side session
// id so logout revokes them immediately.
type Manager struct {
	secret   []byte
	sessions SessionStore
	loc      *time.Location

	// Now is a seam for tests.
	Now func() time.Time
}

func NewManager(secret []byte, sessions SessionStore, loc *time.Location) *Manager {
	return &Manager{
		secret:   secret,
		sessions: sessions,
		loc:      loc,
		Now:      time.Now,
	}
}

// IssueViewerToken signs a marker for (raid, day) expiring at the next
// local midnight, so it never outlives the calendar day by more than the
// clock skew between issue and expiry.
func (m *Manager) IssueViewerToken(raid, day string) (string, time.Time, error) {
	now := m.Now().In(m.loc)
	expires := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, m.loc).AddDate(0, 0, 1)

	claims := viewerClaims{
		Raid: raid,
		Day:  day,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign viewer token: %w", err)
	}
	return token, expires, nil
}

// VerifyViewerToken checks signature, expiry and that the marker was issued
// for exactly this (raid, day).
func (m *Manager) VerifyViewerToken(tokenString, raid, day string) error {
	var claims viewerClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return m.Now() }),
	)
	if err != nil {
		return fmt.Errorf("invalid viewer token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid viewer token")
	}
	if claims.Raid != raid || claims.Day != day {
		return errors.New("viewer token issued for a different raid or day")
	}
	return nil
}

// IssueAdminToken signs a 7-day operator marker and registers its session
// id server-side.
func (m *Manager) IssueAdminToken(ctx context.Context) (string, time.Time, error) {
	now := m.Now()
	expires := now.Add(AdminSessionTTL)
	sessionID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   "operator",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign admin token: %w", err)
	}
	if err := m.sessions.Put(ctx, sessionID, AdminSessionTTL); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to register admin session: %w", err)
	}
	return token, expires, nil
}

// VerifyAdminToken checks signature and expiry, then requires the session
// id to still be registered. Revoked sessions fail here even while the
// cookie itself is unexpired.
func (m *Manager) VerifyAdminToken(ctx context.Context, tokenString string) error {
	claims, err := m.parseAdminClaims(tokenString)
	if err != nil {
		return err
	}
	ok, err := m.sessions.Exists(ctx, claims.ID)
	if err != nil {
		return fmt.Errorf("failed to check admin session: %w", err)
	}
	if !ok {
		return errors.New("admin session revoked or unknown")
	}
	return nil
}

// RevokeAdminToken drops the marker's session id. Unparseable tokens are
// ignored; there is nothing to revoke.
func (m *Manager) RevokeAdminToken(ctx context.Context, tokenString string) {
	claims, err := m.parseAdminClaims(tokenString)
	if err != nil {
		return
	}
	_ = m.sessions.Delete(ctx, claims.ID)
}

func (m *Manager) parseAdminClaims(tokenString string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return m.Now() }),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid admin token: %w", err)
	}
	if !token.Valid || claims.ID == "" {
		return nil, errors.New("invalid admin token")
	}
	return &claims, nil
}

func (m *Manager) keyFunc(*jwt.Token) (interface{}, error) {
	return m.secret, nil
}
