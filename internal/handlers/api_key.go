package handlers

import (
	"context"

	"github.com/kalori-makanan/dashboard-api/internal/auth"
	"github.com/kalori-makanan/dashboard-api/internal/foodapi"
	"github.com/kalori-makanan/dashboard-api/internal/keys"
)

type APIKeyHandler struct {
	keys        *keys.Service
	foodAPI     *foodapi.Client
	authHandler *auth.Handler
}

func NewAPIKeyHandler(keySvc *keys.Service, foodAPI *foodapi.Client, authHandler *auth.Handler) *APIKeyHandler {
	return &APIKeyHandler{keys: keySvc, foodAPI: foodAPI, authHandler: authHandler}
}

type CreateAPIKeyInput struct {
	auth.AuthInput
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Human-readable key name"`
	}
}

type CreateAPIKeyOutput struct {
	Body keys.KeyWithSecret
}

// HandleCreate issues a new key. The response carries the plaintext secret
// exactly once; only the digest and the preview are stored.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	key, err := h.keys.Create(ctx, userID, input.Body.Name)
	if err != nil {
		return nil, mapServiceError(err)
	}

	return &CreateAPIKeyOutput{Body: *key}, nil
}

type ListAPIKeysInput struct {
	auth.AuthInput
}

type ListAPIKeysOutput struct {
	Body []keys.Key
}

func (h *APIKeyHandler) HandleList(ctx context.Context, input *ListAPIKeysInput) (*ListAPIKeysOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	list, err := h.keys.List(ctx, userID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	return &ListAPIKeysOutput{Body: list}, nil
}

type ToggleAPIKeyInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

type ToggleAPIKeyOutput struct {
	Body struct {
		IsActive bool `json:"is_active"`
	}
}

func (h *APIKeyHandler) HandleToggle(ctx context.Context, input *ToggleAPIKeyInput) (*ToggleAPIKeyOutput, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	active, err := h.keys.Toggle(ctx, userID, input.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ToggleAPIKeyOutput{}
	out.Body.IsActive = active
	return out, nil
}

type DeleteAPIKeyInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	userID, err := h.authHandler.Authorize(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}

	if err := h.keys.Delete(ctx, userID, input.ID); err != nil {
		return nil, mapServiceError(err)
	}

	return nil, nil
}

type VerifyAPIKeyInput struct {
	auth.AuthInput
	Body struct {
		Key string `json:"key" minLength:"1" doc:"Plaintext API key to verify against the backend"`
	}
}

type VerifyAPIKeyOutput struct {
	Body struct {
		Valid bool `json:"valid"`
	}
}

// HandleVerify cross-checks a secret against the food API's health endpoint.
// This is a liveness check against a different authority than the local
// digest store.
func (h *APIKeyHandler) HandleVerify(ctx context.Context, input *VerifyAPIKeyInput) (*VerifyAPIKeyOutput, error) {
	if _, err := h.authHandler.Authorize(ctx, input.Cookie); err != nil {
		return nil, err
	}

	out := &VerifyAPIKeyOutput{}
	out.Body.Valid = h.foodAPI.VerifyKey(ctx, input.Body.Key)
	return out, nil
}
