package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/justinas/alice"
	"github.com/rs/cors"

	"github.com/takascemberi/takas/internal/model"
	"github.com/takascemberi/takas/internal/store"
	"github.com/takascemberi/takas/internal/translate"
)

// Deps are the collaborators the API needs.
type Deps struct {
	// DB holds operator accounts, settings and revoked tokens.
	DB *sql.DB
	// Items is where listings live. It may or may not share DB.
	Items       store.ItemRepository
	Translation *translate.Service
	JWTSecret   string
	// CORSOrigins are the web front-ends allowed to call the API.
	CORSOrigins []string
	// Lifetime is canceled when the server shuts down. Optional.
	Lifetime context.Context
}

// NewRouter creates the API router with all endpoints and the common
// middleware chain.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{Items: d.Items}
	translateHandler := &TranslateHandler{Service: d.Translation, Lifetime: d.Lifetime}

	authed := alice.New(AuthMiddleware(d.JWTSecret, d.DB))
	admin := authed.Append(RequireRole(model.RoleAdmin))
	moderator := authed.Append(RequireRole(model.RoleModerator))

	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authed.ThenFunc(authHandler.Logout))
	mux.Handle("PUT /api/auth/password", authed.ThenFunc(authHandler.ChangePassword))

	// Operators (admin only).
	mux.Handle("GET /api/users", admin.ThenFunc(usersHandler.List))
	mux.Handle("POST /api/users", admin.ThenFunc(usersHandler.Create))
	mux.Handle("DELETE /api/users/{id}", admin.ThenFunc(usersHandler.Delete))

	// Listings: public read, moderated write.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("GET /api/items/{id}/image", itemsHandler.GetImage)
	mux.Handle("POST /api/items", moderator.ThenFunc(itemsHandler.Create))
	mux.Handle("PUT /api/items/{id}", moderator.ThenFunc(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", moderator.ThenFunc(itemsHandler.Delete))
	mux.Handle("PUT /api/items/{id}/image", moderator.ThenFunc(itemsHandler.UploadImage))

	// Translation workflow, called by the web client after a listing is saved.
	mux.HandleFunc("POST /api/translate-item/{itemId}", translateHandler.TranslateItem)
	mux.HandleFunc("POST /api/translate-all-items", translateHandler.TranslateAll)

	c := cors.New(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{RequestIDHeader},
	})

	return alice.New(LoggingMiddleware, RecoverMiddleware, c.Handler).Then(mux)
}
