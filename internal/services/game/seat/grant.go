// Package seat issues and verifies seat grants: short-lived HS256 tokens
// that let one player answer prompts in one session.
package seat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/JayLeung362573/373-sub000/internal/platform/errors"
	"github.com/JayLeung362573/373-sub000/internal/platform/id"
)

const (
	// DefaultIssuer is the iss claim written on every grant.
	DefaultIssuer = "fracturing-space-game"
	// DefaultTTL is used when Config.TTL is zero.
	DefaultTTL   = 12 * time.Hour
	minKeyLength = 16
)

// Config defines how grants are signed.
type Config struct {
	Key    []byte
	Issuer string
	TTL    time.Duration
	Now    func() time.Time
}

// Grants signs and verifies seat grants.
type Grants struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// Claims captures the validated contents of a grant.
type Claims struct {
	SessionID string
	PlayerID  string
	ExpiresAt time.Time
	JWTID     string
}

type seatClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"session_id"`
}

// New validates cfg and returns a signer.
func New(cfg Config) (*Grants, error) {
	if len(cfg.Key) < minKeyLength {
		return nil, fmt.Errorf("seat key must be at least %d bytes", minKeyLength)
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("seat grant ttl must not be negative")
	}
	g := &Grants{
		key:    append([]byte(nil), cfg.Key...),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}
	if g.issuer == "" {
		g.issuer = DefaultIssuer
	}
	if g.ttl == 0 {
		g.ttl = DefaultTTL
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

// Issue signs a grant for playerID in sessionID.
func (g *Grants) Issue(sessionID, playerID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	playerID = strings.TrimSpace(playerID)
	if sessionID == "" || playerID == "" {
		return "", errors.New("session id and player id are required")
	}
	jti, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("generate grant id: %w", err)
	}
	now := g.now().UTC()
	claims := seatClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.ttl)),
			ID:        jti,
		},
		SessionID: sessionID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.key)
	if err != nil {
		return "", fmt.Errorf("sign seat grant: %w", err)
	}
	return token, nil
}

// Verify checks the signature, lifetime, and session of grant and returns
// its claims.
func (g *Grants) Verify(grant, sessionID string) (Claims, error) {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return Claims{}, apperrors.New(apperrors.CodeSeatGrantInvalid, "seat grant is required")
	}

	var parsed seatClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(*jwt.Token) (any, error) {
		return g.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer != g.issuer {
		return Claims{}, apperrors.New(apperrors.CodeSeatGrantInvalid, "seat grant issuer mismatch")
	}
	if parsed.ExpiresAt == nil || parsed.Subject == "" || parsed.ID == "" {
		return Claims{}, apperrors.New(apperrors.CodeSeatGrantInvalid, "seat grant is missing required claims")
	}
	now := g.now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeSeatGrantExpired, "seat grant is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time) {
		return Claims{}, apperrors.New(apperrors.CodeSeatGrantInvalid, "seat grant not active yet")
	}
	if parsed.SessionID != strings.TrimSpace(sessionID) {
		return Claims{}, apperrors.WithMetadata(
			apperrors.CodeSeatGrantMismatch,
			"seat grant session mismatch",
			map[string]string{"PlayerID": parsed.Subject},
		)
	}
	return Claims{
		SessionID: parsed.SessionID,
		PlayerID:  parsed.Subject,
		ExpiresAt: exp,
		JWTID:     parsed.ID,
	}, nil
}

// Authorize returns a seat mismatch error unless every player in playerIDs
// is the grant holder.
func (c Claims) Authorize(playerIDs ...string) error {
	for _, playerID := range playerIDs {
		if playerID != c.PlayerID {
			return apperrors.WithMetadata(
				apperrors.CodeSeatGrantMismatch,
				fmt.Sprintf("seat grant for %s cannot answer for %s", c.PlayerID, playerID),
				map[string]string{"PlayerID": playerID},
			)
		}
	}
	return nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.New(apperrors.CodeSeatGrantInvalid, "seat grant signature is invalid")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.New(apperrors.CodeSeatGrantInvalid, "seat grant alg is invalid")
	default:
		return apperrors.Wrap(apperrors.CodeSeatGrantInvalid, "seat grant is invalid", err)
	}
}
