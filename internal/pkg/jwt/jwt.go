package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"
)

// Service validates access tokens issued by the main shop backend.
// This service never issues tokens itself; it only guards the admin
// surface (manual resync triggers) behind the shared signing secret.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
}

type jwtService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &jwtService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwxjwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *jwtService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}
