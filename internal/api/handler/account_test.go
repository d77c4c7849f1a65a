package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/edvin/mailhost/internal/core"
)

func TestAccountSignup_InvalidEmail(t *testing.T) {
	h := NewAccount(nil)
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/signup", map[string]any{
		"name":  "Acme",
		"email": "not-an-email",
	})

	h.Signup(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeErrorResponse(rec)["error"], "validation error")
}

func TestAccountSignup_ReturnsRawKeyOnce(t *testing.T) {
	db := &handlerMockDB{}
	db.On("Exec", mock.Anything, sqlContains("INSERT INTO accounts"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()
	db.On("Exec", mock.Anything, sqlContains("INSERT INTO api_keys"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()

	h := NewAccount(core.NewAccountService(db))
	rec := httptest.NewRecorder()
	r := newRequest(http.MethodPost, "/signup", map[string]any{
		"name":  "Acme",
		"email": "ops@acme.test",
	})

	h.Signup(rec, r)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, strings.Contains(rec.Body.String(), `"api_key":"mh_`))
	db.AssertExpectations(t)
}
