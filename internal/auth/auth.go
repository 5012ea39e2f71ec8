package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kalori-makanan/dashboard-api/internal/config"
	"github.com/kalori-makanan/dashboard-api/internal/database"
	"github.com/kalori-makanan/dashboard-api/internal/keys"
	"github.com/kalori-makanan/dashboard-api/internal/models"
	"github.com/kalori-makanan/dashboard-api/internal/usage"
	"github.com/sirupsen/logrus"
)

const TokenDuration = 24 * time.Hour

// Handler owns the session surface: signup/login/me plus the middleware that
// resolves API keys and JWT cookies.
type Handler struct {
	cfg   *config.Config
	svc   *Service
	keys  *keys.Service
	usage *usage.Service
	log   logrus.FieldLogger
}

func NewHandler(cfg *config.Config, svc *Service, keySvc *keys.Service, usageSvc *usage.Service, logger *logrus.Logger) *Handler {
	return &Handler{
		cfg:   cfg,
		svc:   svc,
		keys:  keySvc,
		usage: usageSvc,
		log:   logger.WithField("component", "auth"),
	}
}

// AuthInput carries the raw Cookie header into huma operations that need a
// session.
type AuthInput struct {
	Cookie string `header:"Cookie"`
}

func (h *Handler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// Authorize resolves the auth_token cookie to a user id.
func (h *Handler) Authorize(ctx context.Context, cookieHeader string) (uint, error) {
	if userID, ok := ctx.Value(UserIDKey).(uint); ok {
		return userID, nil
	}

	header := http.Header{}
	header.Add("Cookie", cookieHeader)
	req := http.Request{Header: header}
	cookie, err := req.Cookie("auth_token")
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}

	userID, _, err := h.parseToken(cookie.Value)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
	}
	return userID, nil
}

func (h *Handler) parseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, fmt.Errorf("invalid token claims")
	}

	var exp time.Time
	if expFloat, ok := claims["exp"].(float64); ok {
		exp = time.Unix(int64(expFloat), 0)
	}
	return uint(userIDFloat), exp, nil
}

func sessionCookie(token string) string {
	cookie := http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	}
	return cookie.String()
}

type UserResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

type SignupInput struct {
	Body struct {
		Name     string `json:"name" doc:"Display name"`
		Email    string `json:"email" format:"email" doc:"Email address, unique per account"`
		Password string `json:"password" minLength:"8" doc:"Password"`
	}
}

type SessionOutput struct {
	SetCookie string `header:"Set-Cookie"`
	Body      UserResponse
}

func (h *Handler) HandleSignup(ctx context.Context, input *SignupInput) (*SessionOutput, error) {
	user, err := h.svc.Signup(ctx, input.Body.Name, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, h.mapError(err)
	}

	token, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	return &SessionOutput{
		SetCookie: sessionCookie(token),
		Body:      toUserResponse(user),
	}, nil
}

type LoginInput struct {
	Body struct {
		Email    string `json:"email" format:"email"`
		Password string `json:"password"`
	}
}

func (h *Handler) HandleLogin(ctx context.Context, input *LoginInput) (*SessionOutput, error) {
	user, err := h.svc.Login(ctx, input.Body.Email, input.Body.Password)
	if err != nil {
		return nil, h.mapError(err)
	}

	token, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	return &SessionOutput{
		SetCookie: sessionCookie(token),
		Body:      toUserResponse(user),
	}, nil
}

type MeInput struct {
	AuthInput
}

type MeOutput struct {
	Body UserResponse
}

func (h *Handler) HandleMe(ctx context.Context, input *MeInput) (*MeOutput, error) {
	userID, err := h.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	user, err := h.svc.GetUserByID(ctx, userID)
	if err != nil {
		return nil, h.mapError(err)
	}

	return &MeOutput{Body: toUserResponse(user)}, nil
}

// mapError translates service error kinds into HTTP responses. Anything not
// specifically recognized becomes a generic failure with no internal detail.
func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, ErrMissingFields):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, ErrDuplicateEmail):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		return huma.Error401Unauthorized(err.Error())
	case errors.Is(err, database.ErrTimeout):
		return huma.Error504GatewayTimeout("Operation timed out")
	default:
		return huma.Error500InternalServerError("Operation failed")
	}
}
