package services

import (
	"fmt"
	"strings"

	"github.com/dgrijalva/jwt-go"

	"littlegrow/internal/models"
	"littlegrow/pkg/apperrors"
)

// AuthService verifies bearer tokens issued by the storefront's auth service.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(jwtSecret string) *AuthService {
	return &AuthService{jwtSecret: []byte(jwtSecret)}
}

// identityClaims is the token payload shared with the issuer.
type identityClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.StandardClaims
}

// ValidateToken parses and validates a JWT token, returning the caller's identity.
func (s *AuthService) ValidateToken(tokenString string) (models.Identity, error) {
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return models.Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, err, "invalid token")
	}
	if !token.Valid || claims.UserID == "" {
		return models.Identity{}, apperrors.New(apperrors.CodeUnauthorized, "invalid token")
	}

	role := models.RoleCustomer
	if strings.EqualFold(claims.Role, string(models.RoleAdmin)) {
		role = models.RoleAdmin
	}
	return models.Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Email:    claims.Email,
		Role:     role,
	}, nil
}
