package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT. Tokens
// are normally minted by the external identity gateway; the engine mints them
// only in tests and local tooling.
type AccessTokenPayload struct {
	PrincipalID uuid.UUID
	JTI         string
}

// AccessTokenClaims represents the typed JWT presented by clients.
type AccessTokenClaims struct {
	PrincipalID uuid.UUID `json:"principal_id"`
	jwt.RegisteredClaims
}
