// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tenantgate/internal/platform/constants"
	requestutil "github.com/taibuivan/tenantgate/internal/platform/request"
	"github.com/taibuivan/tenantgate/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the public session endpoints.
//
// # Scope
//
// Registration, login, refresh token rotation and logout. None of these
// require an access token; the refresh token travels in an HttpOnly cookie.
type Handler struct {
	authService   *Service
	secureCookies bool
}

// NewHandler constructs a new [Handler]. secureCookies sets the Secure flag
// on the refresh cookie and should be true in production.
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{authService: service, secureCookies: secureCookies}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /register      : Creates an account and starts a session.
//   - POST /login         : Authenticates and starts a session.
//   - POST /refresh-token : Rotates the refresh cookie and returns a new access token.
//   - POST /logout        : Clears the refresh cookie.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh-token", handler.refresh)
	router.Post("/logout", handler.logout)

	return router
}

// # Payloads

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	TenantID string `json:"tenantId"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message     string   `json:"message"`
	User        UserView `json:"user"`
	AccessToken string   `json:"accessToken"`
}

type refreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

/*
Register handles the creation of a new account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Email, Password, Name, TenantID)

Response:
  - 201: sessionResponse, refresh cookie set
  - 400: VALIDATION_ERROR
  - 409: EMAIL_EXISTS
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		TenantID: input.TenantID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session.Tokens.RefreshToken)
	respond.Created(writer, sessionResponse{
		Message:     MessageRegistered,
		User:        session.User.View(),
		AccessToken: session.Tokens.AccessToken,
	})
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: sessionResponse, refresh cookie set
  - 401: INVALID_CREDENTIALS
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session.Tokens.RefreshToken)
	respond.OK(writer, sessionResponse{
		Message:     MessageLoggedIn,
		User:        session.User.View(),
		AccessToken: session.Tokens.AccessToken,
	})
}

/*
Refresh rotates the refresh token carried by the cookie.

POST /api/v1/auth/refresh-token

Response:
  - 200: refreshResponse, rotated refresh cookie set
  - 401: REFRESH_TOKEN_MISSING, REFRESH_TOKEN_EXPIRED, INVALID_REFRESH_TOKEN, USER_NOT_FOUND
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var token string
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil {
		token = cookie.Value
	}

	session, err := handler.authService.Refresh(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, session.Tokens.RefreshToken)
	respond.OK(writer, refreshResponse{
		Message:     MessageRefreshed,
		AccessToken: session.Tokens.AccessToken,
	})
}

/*
Logout clears the refresh cookie. Outstanding tokens are not revoked.

POST /api/v1/auth/logout

Response:
  - 200: messageResponse
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	http.SetCookie(writer, handler.refreshCookie("", -1))
	respond.OK(writer, messageResponse{Message: MessageLoggedOut})
}

// # Cookie Handling

func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, token string) {
	http.SetCookie(writer, handler.refreshCookie(token, handler.authService.RefreshTTL()))
}

func (handler *Handler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    value,
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   maxAge,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}
