package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kalori-makanan/dashboard-api/internal/auth"
	"github.com/kalori-makanan/dashboard-api/internal/foodapi"
)

type HealthOutput struct {
	Body struct {
		Status   string               `json:"status"`
		Upstream *foodapi.HealthCheck `json:"upstream,omitempty"`
	}
}

func RegisterRoutes(r *chi.Mux, authHandler *auth.Handler, keyHandler *APIKeyHandler, usageHandler *UsageHandler, foodAPI *foodapi.Client, enableCORS bool) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if enableCORS {
		r.Use(cors)
	}

	// Initialize Huma API
	config := huma.DefaultConfig("Kalori Makanan Dashboard API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	huma.Post(api, "/auth/signup", authHandler.HandleSignup)
	huma.Post(api, "/auth/login", authHandler.HandleLogin)

	huma.Get(api, "/health", func(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
		out := &HealthOutput{}
		out.Body.Status = "ok"
		if upstream, err := foodAPI.Health(ctx); err == nil {
			out.Body.Upstream = upstream
		}
		return out, nil
	})

	// Protected routes pass through the accounting middleware, which admits
	// either an X-API-Key header (logging the request) or a session cookie.
	r.Group(func(gr chi.Router) {
		gr.Use(authHandler.AuthMiddleware)

		// Same OpenAPI document; the doc and schema routes are already
		// registered on the public router, so this instance skips them.
		protectedConfig := config
		protectedConfig.OpenAPIPath = ""
		protectedConfig.DocsPath = ""
		protectedConfig.SchemasPath = ""
		protectedConfig.CreateHooks = nil
		protected := humachi.New(gr, protectedConfig)

		withAuth := func(o *huma.Operation) {
			o.Security = []map[string][]string{{"cookieAuth": {}}}
		}
		huma.Get(protected, "/me", authHandler.HandleMe, withAuth)
		huma.Post(protected, "/keys", keyHandler.HandleCreate, withAuth)
		huma.Get(protected, "/keys", keyHandler.HandleList, withAuth)
		huma.Post(protected, "/keys/{id}/toggle", keyHandler.HandleToggle, withAuth)
		huma.Delete(protected, "/keys/{id}", keyHandler.HandleDelete, withAuth)
		huma.Post(protected, "/keys/verify", keyHandler.HandleVerify, withAuth)
		huma.Get(protected, "/usage", usageHandler.HandleStats, withAuth)
		huma.Get(protected, "/usage/chart", usageHandler.HandleChart, withAuth)
	})
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-API-Key")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
