package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/formnet/core"
	"github.com/trezcool/formnet/core/user"
)

const tokenContextKey = "userToken"

// newJWTConfig returns the JWT auth middleware config.
func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
// Authentication happens upstream: whoever holds a valid token acts as the Caller it describes.
type Claims struct {
	jwt.StandardClaims
	Email          string `json:"email,omitempty"`
	Role           string `json:"role"`
	AcademicYearID string `json:"academic_year_id,omitempty"`
}

func NewClaims(usr user.User, conf *core.Config) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Email:          usr.Email,
		Role:           usr.Role,
		AcademicYearID: usr.AcademicYearID,
	}
}

// Caller returns the identity the token holder acts with.
func (c Claims) Caller() user.Caller {
	return user.Caller{UserID: c.Subject, Role: c.Role, AcademicYearID: c.AcademicYearID}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(secretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getCaller(ctx echo.Context) (user.Caller, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.Caller{}, err
	}
	return claims.Caller(), nil
}
