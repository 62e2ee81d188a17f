// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/aegis/internal/platform/apperr"
	"github.com/taibuivan/aegis/internal/platform/middleware"
	requestutil "github.com/taibuivan/aegis/internal/platform/request"
	"github.com/taibuivan/aegis/internal/platform/respond"
	"github.com/taibuivan/aegis/internal/platform/validate"
)

// maxAvatarBytes caps avatar uploads (5 MB) before decoding touches them.
const maxAvatarBytes = 5 << 20

// # Definitions & Constructors

// Handler implements the self-service account HTTP endpoints.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] with the member self-service routes.
// Every route requires an authenticated session.
//
// # Endpoints
//   - PATCH  /updateMe : Updates display name, email, or avatar.
//   - DELETE /deleteMe : Soft-deletes the account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Patch("/updateMe", handler.updateMe)
		r.Delete("/deleteMe", handler.deleteMe)
	})

	return router
}

// # Request Payloads

// updateMeRequest is the JSON shape of a profile update. The password fields
// exist only so their presence can be detected and rejected.
type updateMeRequest struct {
	DisplayName     *string `json:"display_name"`
	Email           *string `json:"email"`
	Password        string  `json:"password"`
	PasswordConfirm string  `json:"password_confirm"`
}

var errPasswordRoute = apperr.BadRequest(
	"This route is not for password updates. Please use /auth/updateMyPassword",
)

/*
UpdateMe applies profile changes to the authenticated member's own account.

PATCH /api/v1/users/updateMe

Description: Accepts either a JSON body (display name, email) or a
multipart/form-data body that may additionally carry an avatar file. Password
fields are rejected outright to keep credential rotation on its own route.

Request:
  - Body: updateMeRequest, or multipart fields display_name / email / avatar

Response:
  - 200: User: Updated profile
  - 400: ErrBadRequest: Password field present, bad image, or validation failure
  - 401: ErrUnauthorized: Session invalid or absent
  - 409: ErrConflict: Email already taken
*/
func (handler *Handler) updateMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateProfileInput
	contentType := request.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		input, err = decodeMultipartProfile(request)
	} else {
		input, err = decodeJSONProfile(writer, request)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if input.Email != nil {
		v := &validate.Validator{}
		v.Required(FieldEmail, *input.Email).Email(FieldEmail, *input.Email)
		if err := v.Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{"user": user})
}

/*
DeleteMe closes the authenticated member's own account.

DELETE /api/v1/users/deleteMe

Description: Soft-deletes the record. Existing credentials stop resolving at
the session gate immediately.

Response:
  - 204: No Content: Account deactivated
  - 401: ErrUnauthorized: Session invalid or absent
*/
func (handler *Handler) deleteMe(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Deactivate(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Body Decoding

// decodeJSONProfile parses a JSON profile update and enforces the
// no-password-here rule.
func decodeJSONProfile(writer http.ResponseWriter, request *http.Request) (UpdateProfileInput, error) {
	var body updateMeRequest
	if err := requestutil.DecodeJSON(writer, request, &body); err != nil {
		return UpdateProfileInput{}, err
	}

	if body.Password != "" || body.PasswordConfirm != "" {
		return UpdateProfileInput{}, errPasswordRoute
	}

	return UpdateProfileInput{
		DisplayName: body.DisplayName,
		Email:       body.Email,
	}, nil
}

// decodeMultipartProfile parses a multipart profile update, including the
// optional avatar file.
func decodeMultipartProfile(request *http.Request) (UpdateProfileInput, error) {
	if err := request.ParseMultipartForm(maxAvatarBytes); err != nil {
		return UpdateProfileInput{}, apperr.BadRequest("Invalid multipart payload")
	}

	if hasFormField(request, "password") || hasFormField(request, "password_confirm") {
		return UpdateProfileInput{}, errPasswordRoute
	}

	var input UpdateProfileInput
	if hasFormField(request, FieldDisplayName) {
		value := request.FormValue(FieldDisplayName)
		input.DisplayName = &value
	}
	if hasFormField(request, FieldEmail) {
		value := request.FormValue(FieldEmail)
		input.Email = &value
	}

	file, _, err := request.FormFile(FieldAvatar)
	if err == nil {
		defer file.Close()
		payload, readErr := io.ReadAll(io.LimitReader(file, maxAvatarBytes))
		if readErr != nil {
			return UpdateProfileInput{}, apperr.BadRequest("Could not read avatar upload")
		}
		input.Avatar = payload
	} else if err != http.ErrMissingFile {
		return UpdateProfileInput{}, apperr.BadRequest("Invalid avatar upload")
	}

	return input, nil
}

// hasFormField reports whether the multipart body carried the named field.
func hasFormField(request *http.Request, name string) bool {
	if request.MultipartForm == nil {
		return false
	}
	_, ok := request.MultipartForm.Value[name]
	return ok
}
