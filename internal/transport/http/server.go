package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"chat_auth/internal/domain/models"
	"chat_auth/internal/lib/logger/sl"
	"chat_auth/internal/metrics"
	"chat_auth/internal/middleware"
	"chat_auth/internal/services/auth"
	usersvc "chat_auth/internal/services/user_service"
	"chat_auth/internal/transport/http/dto"
	"chat_auth/internal/transport/http/dto/request"
	"chat_auth/internal/transport/http/dto/response"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	_ "chat_auth/docs"
)

type UserService interface {
	RegisterNewUser(ctx context.Context, input dto.UserRegisterInput) (uuid.UUID, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)
	Refresh(ctx context.Context, token string) (models.ResponseToken, error)
	Logout(ctx context.Context, token string) error
	IsAuthenticated(ctx context.Context, token string) (bool, error)
}

type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
}

type RoutersConfig struct {
	Cookie      CookieConfig
	LandingPath string
	LoginPath   string
}

type Routers struct {
	log         *slog.Logger
	UserService UserService
	AuthService AuthService
	cookie      CookieConfig
	landingPath string
	loginPath   string
}

func NewRouter(log *slog.Logger, userService UserService, authService AuthService, cfg RoutersConfig) *Routers {
	return &Routers{
		log:         log,
		UserService: userService,
		AuthService: authService,
		cookie:      cfg.Cookie,
		landingPath: cfg.LandingPath,
		loginPath:   cfg.LoginPath,
	}
}

var errInternal = response.ErrorResponse{
	Status:  "error",
	Error:   "internal_error",
	Details: "Internal server error",
}

// Signup godoc
// @Summary Register a new user
// @Description Creates an account with the default role.
// @Tags users
// @Accept json
// @Param request body dto.UserRegisterInput true "Signup data"
// @Success 200 "User created"
// @Failure 400 {object} response.ErrorResponse "Invalid request format"
// @Failure 409 {object} response.ErrorResponse "User already exists"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/users/signup [post]
func (r *Routers) Signup(c echo.Context) error {
	const op = "http.routers.Signup"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.UserRegisterInput

	if err := c.Bind(&req); err != nil {
		log.Warn("failed to bind request", sl.Err(err))
		metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeInvalid)
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRegisterRequest)
	}

	if err := c.Validate(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeInvalid)
		return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(
			response.ErrInvalidRegisterRequest.Error, err.Error(),
		))
	}

	userID, err := r.UserService.RegisterNewUser(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usersvc.ErrUserExist) {
			log.Warn("user already exists", slog.String("email", req.Email))
			metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeConflict)
			return c.JSON(http.StatusConflict, response.ErrUserAlreadyExists)
		}
		if errors.Is(err, usersvc.ErrInvalidPassword) {
			log.Warn("password rejected", slog.String("email", req.Email))
			metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeInvalid)
			return c.JSON(http.StatusBadRequest, response.ErrorResponseWithDetails(
				response.ErrInvalidRegisterRequest.Error, "password is too long",
			))
		}

		log.Error("registration failed", sl.Err(err))
		metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeError)
		return c.JSON(http.StatusInternalServerError, errInternal)
	}

	log.Info("user registered successfully", slog.String("user_id", userID.String()))
	metrics.ObserveAuth(metrics.OpSignup, metrics.OutcomeSuccess)

	return c.NoContent(http.StatusOK)
}

// Login godoc
// @Summary Authenticate a user
// @Description Checks email and password. Returns an access token and sets the refresh token cookie.
// @Tags users
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Credentials"
// @Success 200 {object} models.ResponseToken "Access token"
// @Header 200 {string} Set-Cookie "refreshToken"
// @Failure 400 {object} response.ErrorResponse "Malformed JSON"
// @Failure 401 "Authentication failed"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/users/login [post]
func (r *Routers) Login(c echo.Context) error {
	const op = "http.routers.Login"

	log := r.log.With(
		slog.String("op", op),
	)

	var req request.LoginRequest

	if err := c.Bind(&req); err != nil {
		metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeInvalid)
		return c.JSON(http.StatusBadRequest, response.ErrInvalidRequestFormat)
	}

	// credentials that cannot match any account fail like any other login
	if err := c.Validate(req); err != nil {
		log.Info("invalid credentials format", slog.String("email", req.Email))
		metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeUnauthorized)
		return c.NoContent(http.StatusUnauthorized)
	}

	session, err := r.AuthService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeUnauthorized)
			return c.NoContent(http.StatusUnauthorized)
		}

		log.Error("login failed", sl.Err(err))
		metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeError)
		return c.JSON(http.StatusInternalServerError, errInternal)
	}

	c.SetCookie(r.refreshCookie(session.Refresh.Token, session.Refresh.ExpiresAt))
	metrics.ObserveAuth(metrics.OpLogin, metrics.OutcomeSuccess)

	return c.JSON(http.StatusOK, session.Access)
}

// RefreshToken godoc
// @Summary Renew the access token
// @Description Mints a new access token from the refresh token cookie. The cookie is left as is.
// @Tags users
// @Produce json
// @Param refreshToken header string false "Cookie: refreshToken=<token>"
// @Success 200 {object} models.ResponseToken "Access token"
// @Failure 401 "Missing, unknown or expired refresh token"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/users/refreshToken [post]
func (r *Routers) RefreshToken(c echo.Context) error {
	const op = "http.routers.RefreshToken"

	log := r.log.With(
		slog.String("op", op),
	)

	access, err := r.AuthService.Refresh(c.Request().Context(), r.cookieValue(c))
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			metrics.ObserveAuth(metrics.OpRefresh, metrics.OutcomeUnauthorized)
			return c.NoContent(http.StatusUnauthorized)
		}

		log.Error("error refresh token", sl.Err(err))
		metrics.ObserveAuth(metrics.OpRefresh, metrics.OutcomeError)
		return c.JSON(http.StatusInternalServerError, errInternal)
	}

	metrics.ObserveAuth(metrics.OpRefresh, metrics.OutcomeSuccess)

	return c.JSON(http.StatusOK, access)
}

// Logout godoc
// @Summary End the session
// @Description Revokes the refresh token from the cookie, clears the cookie and redirects to the login view.
// @Tags users
// @Success 302 "Redirect to the login view"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/users/logout [post]
func (r *Routers) Logout(c echo.Context) error {
	const op = "http.routers.Logout"

	log := r.log.With(
		slog.String("op", op),
	)

	if err := r.AuthService.Logout(c.Request().Context(), r.cookieValue(c)); err != nil {
		log.Error("logout failed", sl.Err(err))
		metrics.ObserveAuth(metrics.OpLogout, metrics.OutcomeError)
		return c.JSON(http.StatusInternalServerError, errInternal)
	}

	cleared := r.refreshCookie("", time.Unix(0, 0))
	cleared.MaxAge = -1
	c.SetCookie(cleared)

	metrics.ObserveAuth(metrics.OpLogout, metrics.OutcomeSuccess)

	return c.Redirect(http.StatusFound, r.loginPath)
}

// LoginPage godoc
// @Summary Login view
// @Description Redirects to the landing page when the refresh token cookie is live, otherwise names the login view.
// @Tags users
// @Produce json
// @Success 200 {object} response.Response{data=object{view=string}} "Login view"
// @Success 302 "Already authenticated"
// @Failure 500 {object} response.ErrorResponse "Internal server error"
// @Router /api/v1/users/login [get]
func (r *Routers) LoginPage(c echo.Context) error {
	const op = "http.routers.LoginPage"

	ok, err := r.AuthService.IsAuthenticated(c.Request().Context(), r.cookieValue(c))
	if err != nil {
		r.log.Error("failed to check session", slog.String("op", op), sl.Err(err))
		return c.JSON(http.StatusInternalServerError, errInternal)
	}

	if ok {
		return c.Redirect(http.StatusFound, r.landingPath)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(map[string]string{"view": "login"}))
}

// Me godoc
// @Summary Current user
// @Description Returns the claims of a valid access token.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=dto.MeResponse} "Token claims"
// @Failure 401 "Missing, invalid or expired access token"
// @Router /api/v1/users/me [get]
func (r *Routers) Me(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.NoContent(http.StatusUnauthorized)
	}

	me := dto.MeResponse{
		Email: claims.Subject,
		Roles: claims.Roles,
	}
	if claims.ExpiresAt != nil {
		me.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(me))
}

func (r *Routers) cookieValue(c echo.Context) string {
	cookie, err := c.Cookie(r.cookie.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}

func (r *Routers) refreshCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     r.cookie.Name,
		Value:    value,
		Path:     r.cookie.Path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   r.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
