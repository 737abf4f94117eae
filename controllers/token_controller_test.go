package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cppla/evsign/config"
	"github.com/cppla/evsign/models"
	"github.com/cppla/evsign/repository"
	"github.com/cppla/evsign/scheduler"
	"github.com/cppla/evsign/utils"
)

type stubClient struct {
	calls   int
	outcome *models.Outcome
	err     error
}

func (s *stubClient) SignIn(_ context.Context, token, accountName string) (*models.Outcome, error) {
	s.calls++
	return s.outcome, s.err
}

var controllerNow = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T, client *stubClient) (*gin.Engine, *repository.TokenRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := config.OpenDatabase("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", "silent")
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := repository.NewTokenRepository(db, nil)
	tc := NewTokenController(repo, client, scheduler.Window{Intn: func(int) int { return 15 }})
	tc.now = func() time.Time { return controllerNow }

	r := gin.New()
	r.GET("/api/tokens", tc.ListTokens)
	r.POST("/api/tokens", tc.CreateToken)
	r.GET("/api/tokens/:id", tc.GetToken)
	r.PUT("/api/tokens/:id", tc.UpdateToken)
	r.DELETE("/api/tokens/:id", tc.DeleteToken)
	r.POST("/api/tokens/:id/signin", tc.TriggerSignIn)
	return r, repo
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateToken(t *testing.T) {
	r, repo := setup(t, &stubClient{})

	w := doJSON(r, http.MethodPost, "/api/tokens", gin.H{"account_name": "alice", "token": "abc"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "alice", all[0].AccountName)
	require.Equal(t, "abc", all[0].Token)
	require.True(t, all[0].NextExecutionTime.Equal(time.Date(2024, 3, 10, 9, 15, 0, 0, time.UTC)))
}

func TestCreateTokenValidation(t *testing.T) {
	r, _ := setup(t, &stubClient{})

	for _, body := range []any{
		gin.H{"account_name": "alice"},
		gin.H{"token": "abc"},
		gin.H{"account_name": "  ", "token": "abc"},
		gin.H{"account_name": "<script></script>", "token": "abc"},
	} {
		w := doJSON(r, http.MethodPost, "/api/tokens", body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.JSONEq(t, `{"error":"Account name and Token are required."}`, w.Body.String())
	}
}

func TestCreateTokenStripsMarkup(t *testing.T) {
	r, repo := setup(t, &stubClient{})

	w := doJSON(r, http.MethodPost, "/api/tokens", gin.H{"account_name": "<b>Tom & Jerry</b>", "token": "abc"})
	require.Equal(t, http.StatusCreated, w.Code)

	all, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Tom & Jerry", all[0].AccountName)
}

func TestCreateDuplicateTokenIs500(t *testing.T) {
	r, _ := setup(t, &stubClient{})

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/tokens", gin.H{"account_name": "a", "token": "dup"}).Code)
	w := doJSON(r, http.MethodPost, "/api/tokens", gin.H{"account_name": "b", "token": "dup"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "Failed to add token. It may already exist.", body.Error)
	require.NotEmpty(t, body.Details)
}

func TestGetUpdateDelete(t *testing.T) {
	r, repo := setup(t, &stubClient{})
	tok, err := repo.Create(context.Background(), "alice", "abc", controllerNow)
	require.NoError(t, err)
	path := "/api/tokens/" + itoa(tok.ID)

	w := doJSON(r, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Token
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, "alice", got.AccountName)

	w = doJSON(r, http.MethodPut, path, gin.H{"account_name": "alice2", "token": "abc2"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true}`, w.Body.String())

	w = doJSON(r, http.MethodPut, path, gin.H{"account_name": "alice2"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, path},
		{http.MethodDelete, path},
		{http.MethodGet, "/api/tokens/not-a-number"},
		{http.MethodPost, path + "/signin"},
	} {
		w = doJSON(r, req.method, req.path, nil)
		require.Equal(t, http.StatusNotFound, w.Code, "%s %s", req.method, req.path)
		require.JSONEq(t, `{"error":"Token not found"}`, w.Body.String())
	}

	w = doJSON(r, http.MethodPut, "/api/tokens/999", gin.H{"account_name": "x", "token": "y"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTriggerSignInKeepsSchedule(t *testing.T) {
	client := &stubClient{outcome: &models.Outcome{Success: true, Message: "sign-in response: {\"code\":200}"}}
	r, repo := setup(t, client)
	next := time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)
	tok, err := repo.Create(context.Background(), "alice", "abc", next)
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/api/tokens/"+itoa(tok.ID)+"/signin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"success":true,"message":"sign-in response: {\"code\":200}"}`, w.Body.String())
	require.Equal(t, 1, client.calls)

	got, err := repo.FindByID(context.Background(), tok.ID)
	require.NoError(t, err)
	require.True(t, got.NextExecutionTime.Equal(next))
	require.NotNil(t, got.LastExecutionTime)
	require.True(t, got.LastResult.Success)
}

func TestTriggerSignInRemoteError(t *testing.T) {
	client := &stubClient{err: errors.New("dial tcp: timeout")}
	r, repo := setup(t, client)
	tok, err := repo.Create(context.Background(), "alice", "abc", controllerNow)
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/api/tokens/"+itoa(tok.ID)+"/signin", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.JSONEq(t, `{"error":"Sign-in failed.","details":"dial tcp: timeout"}`, w.Body.String())

	got, err := repo.FindByID(context.Background(), tok.ID)
	require.NoError(t, err)
	require.Equal(t, "Request failed: dial tcp: timeout", got.LastResult.Message)
	require.True(t, got.NextExecutionTime.Equal(controllerNow))
}

func TestListTokensEmpty(t *testing.T) {
	r, _ := setup(t, &stubClient{})
	w := doJSON(r, http.MethodGet, "/api/tokens", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `[]`, w.Body.String())
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
