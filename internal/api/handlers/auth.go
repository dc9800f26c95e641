package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rohits-web03/sharedrive/internal/api/middleware"
	"github.com/rohits-web03/sharedrive/internal/api/services"
	"github.com/rohits-web03/sharedrive/internal/models"
	"github.com/rohits-web03/sharedrive/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const sessionTTL = 24 * time.Hour

// UserStore is the account side of the store.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthConfig struct {
	JWTSecret   string
	FrontendURL string
	Production  bool

	OAuth       *oauth2.Config
	UserInfoURL string // defaults to Google's
}

// AuthHandler serves sign-up, login and Google sign-in.
type AuthHandler struct {
	users UserStore
	cfg   AuthConfig
	log   *zap.Logger
}

func NewAuthHandler(users UserStore, cfg AuthConfig, log *zap.Logger) *AuthHandler {
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = services.GoogleUserInfoURL
	}
	return &AuthHandler{users: users, cfg: cfg, log: log.Named("auth")}
}

type registerInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser godoc
// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body registerInput true "Account"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Router /api/v1/auth/sign-up [post]
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var input registerInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.log, err)
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Email == "" || input.Username == "" || input.Password == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	ctx := r.Context()
	if _, err := h.users.FindUserByUsername(ctx, input.Username); err == nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Username is already taken",
		})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		writeError(w, h.log, err)
		return
	}

	if _, err := h.users.FindUserByEmail(ctx, input.Email); err == nil {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "User already exists with this email",
		})
		return
	} else if !errors.Is(err, models.ErrNotFound) {
		writeError(w, h.log, err)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, h.log, errors.Wrap(err, "hash password"))
		return
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
		Active:   true,
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		writeError(w, h.log, err)
		return
	}

	h.log.Info("user registered", zap.Stringer("user", user.ID))
	respond(w, http.StatusCreated, "User registered successfully", user)
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginUser godoc
// @Summary Log in
// @Description Sets the session cookie and returns the token for Bearer use.
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body loginInput true "Credentials"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var input loginInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, h.log, err)
		return
	}
	if input.Username == "" || input.Password == "" {
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: "Invalid input",
		})
		return
	}

	user, err := h.users.FindUserByUsername(r.Context(), input.Username)
	if errors.Is(err, models.ErrNotFound) {
		h.invalidCredentials(w)
		return
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)) != nil {
		h.invalidCredentials(w)
		return
	}
	if !user.Active {
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "Account is disabled",
		})
		return
	}

	token, err := h.startSession(w, user)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	respond(w, http.StatusOK, "Login successful", map[string]any{
		"user":  user,
		"token": token,
	})
}

func (h *AuthHandler) invalidCredentials(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
		Success: false,
		Message: "Invalid credentials",
	})
}

// startSession issues a token and sets it as the session cookie.
func (h *AuthHandler) startSession(w http.ResponseWriter, user *models.User) (string, error) {
	token, err := middleware.IssueToken(h.cfg.JWTSecret, user.ID, user.Username, sessionTTL)
	if err != nil {
		return "", err
	}

	sameSite := http.SameSiteLaxMode
	if h.cfg.Production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		Secure:   h.cfg.Production,
		HttpOnly: true,
		SameSite: sameSite,
	})
	return token, nil
}

// Logout godoc
// @Summary Log out
// @Tags Auth
// @Success 200 {object} utils.Payload
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   h.cfg.Production,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respond(w, http.StatusOK, "Logged out successfully", nil)
}

// Me godoc
// @Summary The logged-in user
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireActor(w, r)
	if !ok {
		return
	}
	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	if !user.Active {
		utils.JSONResponse(w, http.StatusForbidden, utils.Payload{
			Success: false,
			Message: "Account is disabled",
		})
		return
	}
	respond(w, http.StatusOK, "User fetched", user)
}

func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	flow := r.URL.Query().Get("redirect")
	if flow != flowRegister {
		flow = flowLogin
	}

	state, err := GenerateState(flow)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		Secure:   h.cfg.Production,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.cfg.OAuth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

type googleUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	state := r.FormValue("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != state {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	flow, err := DecodeState(state)
	if err != nil {
		http.Error(w, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	ctx := r.Context()
	profile, err := h.fetchGoogleUser(ctx, r.FormValue("code"))
	if err != nil {
		h.log.Warn("google sign-in failed", zap.Error(err))
		http.Error(w, "Failed to get user info", http.StatusBadGateway)
		return
	}

	user, err := h.users.FindUserByEmail(ctx, profile.Email)
	switch {
	case err != nil && !errors.Is(err, models.ErrNotFound):
		writeError(w, h.log, err)
		return
	case flow == flowRegister && err == nil:
		h.redirect(w, r, "/login", "error", "user_already_exists")
		return
	case flow == flowLogin && err != nil:
		h.redirect(w, r, "/register", "error", "user_not_found")
		return
	case flow == flowRegister:
		user, err = h.createGoogleUser(ctx, profile)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
	}

	if !user.Active {
		h.redirect(w, r, "/login", "error", "account_disabled")
		return
	}
	if _, err := h.startSession(w, user); err != nil {
		writeError(w, h.log, err)
		return
	}
	h.redirect(w, r, "/drive", "status", "success_"+flow)
}

func (h *AuthHandler) fetchGoogleUser(ctx context.Context, code string) (*googleUser, error) {
	token, err := h.cfg.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "code exchange failed")
	}

	resp, err := h.cfg.OAuth.Client(ctx, token).Get(h.cfg.UserInfoURL)
	if err != nil {
		return nil, errors.Wrap(err, "user info request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("user info returned %s", resp.Status)
	}

	var profile googleUser
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, errors.Wrap(err, "failed to parse user info")
	}
	if profile.Email == "" {
		return nil, errors.New("user info has no email")
	}
	return &profile, nil
}

// createGoogleUser registers a password-less account. The Google display
// name is used as username unless it is empty or taken.
func (h *AuthHandler) createGoogleUser(ctx context.Context, profile *googleUser) (*models.User, error) {
	username := strings.TrimSpace(profile.Name)
	if username == "" {
		username = profile.Email
	} else if _, err := h.users.FindUserByUsername(ctx, username); err == nil {
		username = profile.Email
	}

	user := &models.User{
		Username: username,
		Email:    profile.Email,
		Active:   true,
	}
	if err := h.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	h.log.Info("user registered with google", zap.Stringer("user", user.ID))
	return user, nil
}

func (h *AuthHandler) redirect(w http.ResponseWriter, r *http.Request, path, key, value string) {
	target := strings.TrimRight(h.cfg.FrontendURL, "/") + path + "?" + url.Values{key: {value}}.Encode()
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
