package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

// AccessTokenClaims is the signed payload carried in the session cookie. The
// role field distinguishes plain users, customers and admins.
type AccessTokenClaims struct {
	SubjectID uuid.UUID  `json:"sub_id"`
	Role      enums.Role `json:"role"`
	Name      string     `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// AccessTokenPayload carries the inputs for minting a token.
type AccessTokenPayload struct {
	SubjectID uuid.UUID
	Role      enums.Role
	Name      string
	JTI       string
}
