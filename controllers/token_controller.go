package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/evsign/models"
	"github.com/cppla/evsign/repository"
	"github.com/cppla/evsign/scheduler"
	"github.com/cppla/evsign/utils"
)

const (
	msgTokenNotFound = "Token not found"
	msgFieldsMissing = "Account name and Token are required."
)

// SignInClient performs one remote check-in.
type SignInClient interface {
	SignIn(ctx context.Context, token, accountName string) (*models.Outcome, error)
}

// TokenController exposes CRUD and the manual trigger over token records.
type TokenController struct {
	repo   *repository.TokenRepository
	client SignInClient
	window scheduler.Window
	now    func() time.Time
}

// NewTokenController creates a controller. window decides the first execution time of new records.
func NewTokenController(repo *repository.TokenRepository, client SignInClient, window scheduler.Window) *TokenController {
	return &TokenController{repo: repo, client: client, window: window, now: time.Now}
}

type tokenPayload struct {
	AccountName string `json:"account_name"`
	Token       string `json:"token"`
}

func (p *tokenPayload) normalize() bool {
	p.AccountName = utils.SanitizeLabel(p.AccountName)
	p.Token = strings.TrimSpace(p.Token)
	return p.AccountName != "" && p.Token != ""
}

// ListTokens returns every record, newest first.
func (t *TokenController) ListTokens(ctx *gin.Context) {
	tokens, err := t.repo.ListAll(ctx.Request.Context())
	if err != nil {
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Failed to list tokens.", err)
		return
	}
	ctx.JSON(http.StatusOK, tokens)
}

// GetToken returns one record.
func (t *TokenController) GetToken(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	token, err := t.repo.FindByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(ctx, msgTokenNotFound)
			return
		}
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Failed to load token.", err)
		return
	}
	ctx.JSON(http.StatusOK, token)
}

// CreateToken stores a new record scheduled inside today's or tomorrow's window.
func (t *TokenController) CreateToken(ctx *gin.Context) {
	var payload tokenPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil || !payload.normalize() {
		utils.Error(ctx, http.StatusBadRequest, msgFieldsMissing)
		return
	}

	next := t.window.Initial(t.now())
	if _, err := t.repo.Create(ctx.Request.Context(), payload.AccountName, payload.Token, next); err != nil {
		// duplicates stay a 500 for compatibility with existing clients
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Failed to add token. It may already exist.", err)
		return
	}
	utils.Success(ctx, http.StatusCreated)
}

// UpdateToken replaces the label and credential of a record.
func (t *TokenController) UpdateToken(ctx *gin.Context) {
	var payload tokenPayload
	if err := ctx.ShouldBindJSON(&payload); err != nil || !payload.normalize() {
		utils.Error(ctx, http.StatusBadRequest, msgFieldsMissing)
		return
	}
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if err := t.repo.Update(ctx.Request.Context(), id, payload.AccountName, payload.Token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(ctx, msgTokenNotFound)
			return
		}
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Failed to update token.", err)
		return
	}
	utils.Success(ctx, http.StatusOK)
}

// DeleteToken removes a record.
func (t *TokenController) DeleteToken(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	if err := t.repo.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(ctx, msgTokenNotFound)
			return
		}
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Failed to delete token.", err)
		return
	}
	utils.Success(ctx, http.StatusOK)
}

// TriggerSignIn runs the check-in for one record right now. The outcome is
// stored as the last result; the scheduled time is left alone.
func (t *TokenController) TriggerSignIn(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	reqCtx := ctx.Request.Context()

	token, err := t.repo.FindByID(reqCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.NotFound(ctx, msgTokenNotFound)
			return
		}
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Failed to load token.", err)
		return
	}

	outcome, callErr := t.client.SignIn(reqCtx, token.Token, token.AccountName)
	stored := outcome
	if callErr != nil {
		stored = models.FailureOutcome(callErr)
	}
	if err := t.repo.UpdateResult(reqCtx, id, t.now(), stored); err != nil {
		utils.Sugar.Warnw("failed to store manual sign-in result", "id", id, "error", err)
	}

	if callErr != nil {
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Sign-in failed.", callErr)
		return
	}
	ctx.JSON(http.StatusOK, outcome)
}

// parseID writes a 404 for ids that cannot name a record.
func parseID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.NotFound(ctx, msgTokenNotFound)
		return 0, false
	}
	return uint(id), true
}
