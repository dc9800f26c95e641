package api

import (
	"net/http"

	_ "github.com/rohits-web03/sharedrive/docs"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/rohits-web03/sharedrive/internal/api/handlers"
	"github.com/rohits-web03/sharedrive/internal/api/middleware"
	"github.com/rohits-web03/sharedrive/internal/models"
	"github.com/rs/cors"
)

type RouterConfig struct {
	Auth      *handlers.AuthHandler
	Drive     *handlers.DriveHandler
	Health    http.HandlerFunc
	JWTSecret string
	Cors      cors.Options
	Logger    *zap.Logger
}

func SetupRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	required := middleware.AuthMiddleware(cfg.JWTSecret)
	optional := middleware.OptionalAuth(cfg.JWTSecret)

	// ---------- PUBLIC ROUTES ----------
	mux.HandleFunc("GET /health", cfg.Health)
	mux.Handle("GET /docs/", httpSwagger.WrapHandler)

	auth := cfg.Auth
	mux.HandleFunc("POST /api/v1/auth/sign-up", auth.RegisterUser)
	mux.HandleFunc("POST /api/v1/auth/login", auth.LoginUser)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/v1/auth/google/login", auth.HandleGoogleLogin)
	mux.HandleFunc("GET /api/v1/auth/google/callback", auth.HandleGoogleCallback)
	mux.Handle("GET /api/v1/auth/me", required(http.HandlerFunc(auth.Me)))

	// ---------- READ ROUTES (anonymous allowed) ----------
	d := cfg.Drive
	mux.Handle("GET /api/v1/folders", optional(http.HandlerFunc(d.ListFolders)))
	mux.Handle("GET /api/v1/folders/tree", optional(http.HandlerFunc(d.FolderTree)))
	mux.Handle("GET /api/v1/folders/{id}", optional(http.HandlerFunc(d.GetFolder)))
	mux.Handle("GET /api/v1/files", optional(http.HandlerFunc(d.ListFiles)))
	mux.Handle("GET /api/v1/files/{id}", optional(http.HandlerFunc(d.GetFile)))
	mux.Handle("GET /api/v1/files/{id}/download", optional(http.HandlerFunc(d.DownloadFile)))

	// ---------- PROTECTED ROUTES ----------
	mux.Handle("POST /api/v1/folders", required(http.HandlerFunc(d.CreateFolder)))
	mux.Handle("PATCH /api/v1/folders/{id}", required(http.HandlerFunc(d.UpdateFolder)))
	mux.Handle("DELETE /api/v1/folders/{id}", required(http.HandlerFunc(d.DeleteFolder)))

	mux.Handle("POST /api/v1/files", required(http.HandlerFunc(d.CreateFile)))
	mux.Handle("GET /api/v1/files/shared", required(http.HandlerFunc(d.ListSharedWithMe)))
	mux.Handle("PATCH /api/v1/files/{id}", required(http.HandlerFunc(d.UpdateFile)))
	mux.Handle("DELETE /api/v1/files/{id}", required(http.HandlerFunc(d.DeleteFile)))

	for prefix, kind := range map[string]models.ResourceKind{
		"/api/v1/files/{id}/shares":   models.KindFile,
		"/api/v1/folders/{id}/shares": models.KindFolder,
	} {
		mux.Handle("GET "+prefix, required(d.ListShares(kind)))
		mux.Handle("POST "+prefix, required(d.Share(kind)))
		mux.Handle("DELETE "+prefix, required(d.RevokeAll(kind)))
		mux.Handle("DELETE "+prefix+"/{userId}", required(d.Revoke(kind)))
	}

	cfg.Logger.Info("Router initialized")
	handler := cors.New(cfg.Cors).Handler(mux)
	handler = middleware.Logger(cfg.Logger)(handler)
	return handler
}
