package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	return NewRouter(&Server{
		DB:     db,
		Config: &Config{JWTSecret: "test-secret", TokenTTLHours: 1},
	})
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signupAndLogin(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/signup", "", gin.H{
		"email": username + "@example.com", "username": username, "password": "hunter22",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "hunter22")

	w = doJSON(t, r, http.MethodPost, "/login", "", gin.H{
		"email": username + "@example.com", "password": "hunter22",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestEventLifecycleOverHTTP(t *testing.T) {
	r := setupTestRouter(t)
	alice := signupAndLogin(t, r, "alice")
	bob := signupAndLogin(t, r, "bob")

	w := doJSON(t, r, http.MethodPost, "/api/events", alice, gin.H{
		"title": "Plant swap", "description": "Bring cuttings", "location": "Library",
		"date": "2099-06-01", "time": "10:30", "purpose": "Sell", "items_bringing": "Fern\nIvy",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ev Event
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ev))
	require.NotZero(t, ev.ID)
	eventPath := fmt.Sprintf("/api/events/%d", ev.ID)

	w = doJSON(t, r, http.MethodPost, eventPath+"/join", bob, gin.H{
		"attendance_likelihood": "Maybe", "purpose": "Both", "items_bringing": "Cactus",
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, eventPath+"/join", bob, gin.H{
		"attendance_likelihood": "Maybe", "purpose": "Buy",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, eventPath+"/leave", alice, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPut, eventPath+"/membership", bob, gin.H{"purpose": "Sell"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail EventDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Len(t, detail.Attendees, 2)
	assert.Len(t, detail.Items, 3)
	require.NotNil(t, detail.Attendance)
	assert.Equal(t, PurposeBoth, detail.Attendance.Purpose)

	w = doJSON(t, r, http.MethodGet, "/events?items_search=cactus&date_from=not-a-date", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.TotalCount)

	w = doJSON(t, r, http.MethodPost, eventPath+"/leave", bob, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, eventPath, bob, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, r, http.MethodDelete, eventPath, alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/events/%d", ev.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateEventValidation(t *testing.T) {
	r := setupTestRouter(t)
	alice := signupAndLogin(t, r, "alice")

	base := gin.H{
		"title": "Swap", "description": "d", "location": "l",
		"date": "2099-06-01", "time": "10:30", "purpose": "Sell",
	}
	with := func(k, v string) gin.H {
		out := gin.H{}
		for key, val := range base {
			out[key] = val
		}
		out[k] = v
		return out
	}

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/events", alice, with("date", "June 1st")).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/events", alice, with("time", "noon")).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/events", alice, with("purpose", "Rent")).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodPost, "/api/events", "", base).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(t, r, http.MethodPost, "/api/events", "garbage", base).Code)
}

func TestAuthEndpoints(t *testing.T) {
	r := setupTestRouter(t)
	signupAndLogin(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/signup", "", gin.H{
		"email": "alice@example.com", "username": "alice2", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserEventsEndpoint(t *testing.T) {
	r := setupTestRouter(t)
	alice := signupAndLogin(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/api/events", alice, gin.H{
		"title": "Swap", "description": "d", "location": "l",
		"date": "2099-06-01", "time": "10:30", "purpose": "Buy",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/users/alice/events?page=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 5, page.PerPage)
	assert.Len(t, page.Items, 1)

	w = doJSON(t, r, http.MethodGet, "/users/nobody/events", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDHeader(t *testing.T) {
	r := setupTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/events", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
