package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventario/inventario/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{shared.ErrNotFound, http.StatusNotFound},
		{shared.ErrForbidden, http.StatusNotFound},
		{shared.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("wrap: %w", shared.ErrDuplicate), http.StatusConflict},
		{shared.ErrInvalidQuantity, http.StatusBadRequest},
		{shared.ErrCSRFTokenMismatch, http.StatusForbidden},
		{shared.ErrTransient, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	}
}

func TestForbiddenBodyMatchesNotFound(t *testing.T) {
	notFound := httptest.NewRecorder()
	RespondError(notFound, shared.ErrNotFound)
	forbidden := httptest.NewRecorder()
	RespondError(forbidden, shared.ErrForbidden)

	assert.Equal(t, notFound.Body.String(), forbidden.Body.String())
}

func TestJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	JSON(rr, http.StatusCreated, map[string]int{"units": 3})

	require.Equal(t, http.StatusCreated, rr.Code)
	var body map[string]int
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 3, body["units"])
}
