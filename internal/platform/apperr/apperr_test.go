// Copyright (c) 2026 Aegis. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_MessagePassesThroughVerbatim(t *testing.T) {
	tests := []struct {
		name    string
		err     *AppError
		status  int
		message string
	}{
		{"not found", NotFound("There is no user with that email address"), http.StatusNotFound, "There is no user with that email address"},
		{"unauthorized", Unauthorized("Incorrect email or password"), http.StatusUnauthorized, "Incorrect email or password"},
		{"conflict", Conflict("Email is already registered"), http.StatusConflict, "Email is already registered"},
		{"bad request", BadRequest("Token is invalid or has expired"), http.StatusBadRequest, "Token is invalid or has expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)

			// The message reaches the client exactly as the call site wrote it.
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestAs_ExtractsFromWrappedChain(t *testing.T) {
	base := NotFound("User not found")
	wrapped := Wrapf(base, "auth_service_profile_failed")

	extracted := As(wrapped)
	require.NotNil(t, extracted)
	assert.Equal(t, http.StatusNotFound, extracted.HTTPStatus)
	assert.Equal(t, "User not found", extracted.Message)
}

func TestAs_ReturnsNilForPlainErrors(t *testing.T) {
	assert.Nil(t, As(errors.New("pgx: connection refused")))
	assert.Nil(t, As(nil))
}
