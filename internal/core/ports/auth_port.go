package ports

import "github.com/sm8ta/webike_component_microservice/internal/core/domain"

type TokenService interface {
	VerifyToken(token string) (*domain.TokenPayload, error)
}
