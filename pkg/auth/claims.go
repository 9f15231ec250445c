package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shiplist-backend/pkg/enums"
)

var ErrInvalidClaims = errors.New("invalid access token claims")

// AccessTokenPayload is what the caller supplies when minting a token.
type AccessTokenPayload struct {
	EditorID uuid.UUID
	Name     string
	Role     enums.EditorRole
	JTI      string
}

// AccessTokenClaims is the JWT body carried by back-office editors.
type AccessTokenClaims struct {
	EditorID uuid.UUID        `json:"editor_id"`
	Name     string           `json:"name,omitempty"`
	Role     enums.EditorRole `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims checks during parsing and
// before signing.
func (c AccessTokenClaims) Validate() error {
	if c.EditorID == uuid.Nil {
		return fmt.Errorf("%w: missing editor id", ErrInvalidClaims)
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("%w: role %q", ErrInvalidClaims, c.Role)
	}
	if c.Subject != "" && c.Subject != c.EditorID.String() {
		return fmt.Errorf("%w: subject does not match editor id", ErrInvalidClaims)
	}
	return nil
}
