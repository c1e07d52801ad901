package http

import (
	"errors"
	"fmt"

	"github.com/sm8ta/webike_component_microservice/internal/core/domain"
	"github.com/sm8ta/webike_component_microservice/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errInvalidClaims = errors.New("invalid token claims")

// accessClaims is the claim set the user service signs.
type accessClaims struct {
	TokenID string `json:"id"`
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// JWTTokenService verifies tokens issued by the user service. This service
// never issues tokens itself.
type JWTTokenService struct {
	secretKey []byte
	parser    *jwt.Parser
	logger    ports.LoggerPort
}

func NewJWTTokenService(secretKey string, logger ports.LoggerPort) *JWTTokenService {
	return &JWTTokenService{
		secretKey: []byte(secretKey),
		parser:    jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
		logger:    logger,
	}
}

// проверка жвт
func (j *JWTTokenService) VerifyToken(token string) (*domain.TokenPayload, error) {
	claims := &accessClaims{}
	if _, err := j.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	}); err != nil {
		j.logger.Warn("Failed to parse jwt", map[string]interface{}{
			"error":  err.Error(),
			"method": "VerifyToken",
		})
		return nil, err
	}

	payload, err := claims.payload()
	if err != nil {
		j.logger.Warn("Rejected token claims", map[string]interface{}{
			"error":  err.Error(),
			"method": "VerifyToken",
		})
		return nil, err
	}
	return payload, nil
}

func (c *accessClaims) payload() (*domain.TokenPayload, error) {
	id, err := uuid.Parse(c.TokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: id", errInvalidClaims)
	}
	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: user_id", errInvalidClaims)
	}

	role := domain.UserRole(c.Role)
	if role != domain.Admin && role != domain.AppUser {
		return nil, fmt.Errorf("%w: role %q", errInvalidClaims, c.Role)
	}

	payload := &domain.TokenPayload{ID: id, UserID: userID, Role: role}
	if c.ExpiresAt != nil {
		payload.ExpiresAt = c.ExpiresAt.Time
	}
	return payload, nil
}
