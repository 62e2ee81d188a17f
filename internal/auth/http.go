// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle, from account
creation to session issuance and password recovery.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Injects the session credential as an HttpOnly cookie.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes,
headers, cookies, JSON).
*/

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aegis/internal/platform/constants"
	"github.com/taibuivan/aegis/internal/platform/middleware"
	requestutil "github.com/taibuivan/aegis/internal/platform/request"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Signup, Login, Verification, Password Recovery).
type Handler struct {
	authService   *Service
	secureCookies bool
}

// NewHandler constructs a new [Handler] with its service dependency.
//
// secureCookies should be true everywhere except local development, where the
// absence of TLS would make the browser drop Secure cookies.
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{authService: service, secureCookies: secureCookies}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST  /signup                : Creates an account and mails the verification link.
//   - POST  /login                 : Authenticates and sets the session cookie.
//   - POST  /logout                : Overwrites the session cookie.
//   - GET   /verify/{token}        : Confirms email ownership.
//   - POST  /forgotPassword        : Emails a reset link.
//   - PATCH /resetPassword/{token} : Installs a new password via reset link.
//   - GET   /me                    : Returns the authenticated profile.
//   - PATCH /updateMyPassword      : Rotates the password of a logged-in user.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)
	router.Post("/logout", handler.logout)
	router.Get("/verify/{token}", handler.verifyEmail)
	router.Post("/forgotPassword", handler.forgotPassword)
	router.Patch("/resetPassword/{token}", handler.resetPassword)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
		r.Patch("/updateMyPassword", handler.updateMyPassword)
	})

	return router
}

// # Request Payloads

type signupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	DisplayName     string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type updatePasswordRequest struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

// # Cookie Management

// setSessionCookie installs the signed credential as an HttpOnly cookie whose
// lifetime matches the credential's own expiry.
func (handler *Handler) setSessionCookie(writer http.ResponseWriter, credential string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    credential,
		Path:     constants.SessionCookiePath,
		Expires:  expiresAt,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// setLogoutCookie overwrites the session cookie with a short-lived sentinel.
// The credential itself stays valid until expiry; the client just no longer
// holds it.
func (handler *Handler) setLogoutCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    constants.LogoutSentinel,
		Path:     constants.SessionCookiePath,
		Expires:  time.Now().Add(constants.LogoutCookieTTL),
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// linkBaseURL reconstructs the absolute prefix of this router from the
// inbound request, so emailed links point back at the host the member
// actually used.
func linkBaseURL(request *http.Request) string {
	scheme := request.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if request.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return scheme + "://" + request.Host + "/api/v1/auth"
}

// # Handlers

/*
Signup handles the creation of a new user account.

POST /api/v1/auth/signup

Description: Validates input, persists a new profile, and sends the
verification email. The account cannot log in until it is verified.

Request:
  - Body: signupRequest (Email, Password, PasswordConfirm, DisplayName)

Response:
  - 201: User: Created profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Email already exists
  - 500: ErrDeliveryFailed: Welcome email could not be sent
*/
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	var input signupRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Equal(FieldPasswordConfirm, input.PasswordConfirm, input.Password, "does not match password")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Signup(request.Context(), SignupInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
		LinkBaseURL: linkBaseURL(request),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]any{FieldUser: user})
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials and injects the signed session cookie into
the response.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: User: Profile, with the session cookie set
  - 401: ErrUnauthorized: Invalid credentials or unverified account
  - 429: ErrRateLimited: Too many failed attempts for this email
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, session.Credential, session.ExpiresAt)
	respond.OK(writer, map[string]any{FieldUser: session.User})
}

/*
Logout terminates the current session on the client side.

POST /api/v1/auth/logout

Description: Overwrites the session cookie with a short-lived sentinel value.
Works for anonymous callers too, so a stale client can always "log out".

Response:
  - 200: Success: Cookie overwritten
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	handler.setLogoutCookie(writer)
	respond.OK(writer, map[string]string{
		FieldMessage: "Logged out successfully",
	})
}

/*
VerifyEmail confirms a user's email ownership.

GET /api/v1/auth/verify/{token}

Description: Validates the mailed verification token and marks the account
as verified. The token is single-use.

Response:
  - 200: Success: Email verified
  - 400: ErrBadRequest: Unknown, used, or expired token
*/
func (handler *Handler) verifyEmail(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, FieldToken)
	if token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	user, err := handler.authService.VerifyEmail(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldMessage: "Email verified successfully",
		FieldUser:    user,
	})
}

/*
ForgotPassword initiates the password recovery flow.

POST /api/v1/auth/forgotPassword

Description: Emails a single-use reset link to the account.

Request:
  - Body: forgotPasswordRequest (Email)

Response:
  - 200: Success: Reset link sent
  - 404: ErrNotFound: No account with that email
  - 500: ErrDeliveryFailed: Reset email could not be sent
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ForgotPassword(request.Context(), input.Email, linkBaseURL(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Reset link sent to email",
	})
}

/*
ResetPassword completes the password recovery flow.

PATCH /api/v1/auth/resetPassword/{token}

Description: Validates the reset token, installs the new password, and logs
the member in under it.

Request:
  - Body: resetPasswordRequest (Password, PasswordConfirm)

Response:
  - 200: User: Profile, with a fresh session cookie set
  - 400: ErrBadRequest: Unknown, used, or expired token, or weak password
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	token := requestutil.Param(request, FieldToken)
	if token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldToken, "is required"))
		return
	}

	var input resetPasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, MinPasswordLength).
		Equal(FieldPasswordConfirm, input.PasswordConfirm, input.Password, "does not match password")

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.ResetPassword(request.Context(), token, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, session.Credential, session.ExpiresAt)
	respond.OK(writer, map[string]any{FieldUser: session.User})
}

/*
Me returns the authenticated user's own profile.

GET /api/v1/auth/me

Response:
  - 200: User: Full private profile
  - 401: ErrUnauthorized: Session invalid or absent
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{FieldUser: user})
}

/*
UpdateMyPassword rotates the authenticated user's password.

PATCH /api/v1/auth/updateMyPassword

Description: Verifies the current password before applying the new one. Older
sessions turn stale; the response carries the only fresh credential.

Request:
  - Body: updatePasswordRequest (CurrentPassword, NewPassword, NewPasswordConfirm)

Response:
  - 200: User: Profile, with a fresh session cookie set
  - 401: ErrUnauthorized: Session invalid or current password wrong
  - 400: ErrValidation: Weak password or confirmation mismatch
*/
func (handler *Handler) updateMyPassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updatePasswordRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	v := &validate.Validator{}
	v.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, MinPasswordLength).
		Equal("new_password_confirm", input.NewPasswordConfirm, input.NewPassword, "does not match new password")

	if err := v.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.ChangePassword(
		request.Context(),
		userID,
		input.CurrentPassword,
		input.NewPassword,
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setSessionCookie(writer, session.Credential, session.ExpiresAt)
	respond.OK(writer, map[string]any{FieldUser: session.User})
}
