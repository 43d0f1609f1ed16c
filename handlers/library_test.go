package handlers

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/librishq/libris/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLibraryEnv(t *testing.T) (env *testEnv, adminToken, userToken string) {
	t.Helper()

	env = setupTestEnv(t)

	_, err := env.authService.Register("root", "root@x.com", "pw123", auth.RoleAdmin)
	require.NoError(t, err)
	_, err = env.authService.Register("alice", "alice@x.com", "pw123", "")
	require.NoError(t, err)

	adminToken, _ = env.login(t, "root", "pw123")
	userToken, _ = env.login(t, "alice", "pw123")
	return env, adminToken, userToken
}

func createBookViaAPI(t *testing.T, env *testEnv, adminToken string) float64 {
	t.Helper()

	rec, payload := env.request(t, http.MethodPost, "/api/v1/authors",
		`{"name":"Ursula K. Le Guin"}`, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	authorID := payload["id"].(float64)

	rec, payload = env.request(t, http.MethodPost, "/api/v1/books",
		`{"title":"The Dispossessed","isbn":"978-0061054884","author_id":`+
			jsonNumber(authorID)+`,"published_year":1974,"total_copies":2}`, adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	return payload["id"].(float64)
}

func jsonNumber(f float64) string {
	return strconv.Itoa(int(f))
}

func TestLibraryHandler_AdminGating(t *testing.T) {
	env, adminToken, userToken := setupLibraryEnv(t)

	t.Run("regular user cannot create authors", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodPost, "/api/v1/authors",
			`{"name":"Someone"}`, userToken)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("anonymous caller cannot list books", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodGet, "/api/v1/books", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin can create and user can read", func(t *testing.T) {
		createBookViaAPI(t, env, adminToken)

		rec, payload := env.request(t, http.MethodGet, "/api/v1/books", "", userToken)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), payload["total"])
	})
}

func TestLibraryHandler_LoanFlow(t *testing.T) {
	env, adminToken, userToken := setupLibraryEnv(t)
	bookID := createBookViaAPI(t, env, adminToken)

	t.Run("borrow", func(t *testing.T) {
		rec, payload := env.request(t, http.MethodPost, "/api/v1/loans",
			`{"book_id":`+jsonNumber(bookID)+`}`, userToken)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.NotNil(t, payload["due_at"])
	})

	t.Run("loans show up under mine", func(t *testing.T) {
		rec, payload := env.request(t, http.MethodGet, "/api/v1/loans/mine", "", userToken)

		require.Equal(t, http.StatusOK, rec.Code)
		loans := payload["loans"].([]any)
		assert.Len(t, loans, 1)
	})

	t.Run("return", func(t *testing.T) {
		rec, payload := env.request(t, http.MethodGet, "/api/v1/loans/mine", "", userToken)
		require.Equal(t, http.StatusOK, rec.Code)
		loan := payload["loans"].([]any)[0].(map[string]any)
		loanID := loan["id"].(float64)

		recReturn, returned := env.request(t, http.MethodPost,
			"/api/v1/loans/"+jsonNumber(loanID)+"/return", "", userToken)

		require.Equal(t, http.StatusOK, recReturn.Code)
		assert.NotNil(t, returned["returned_at"])
	})

	t.Run("stats are admin only", func(t *testing.T) {
		rec, _ := env.request(t, http.MethodGet, "/api/v1/stats", "", userToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		recAdmin, payload := env.request(t, http.MethodGet, "/api/v1/stats", "", adminToken)
		require.Equal(t, http.StatusOK, recAdmin.Code)
		assert.Equal(t, float64(1), payload["total_books"])
	})
}
