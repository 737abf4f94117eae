package controllers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/evsign/middleware"
	"github.com/cppla/evsign/utils"
)

// Credentials is the single admin account allowed to manage tokens.
type Credentials struct {
	Username string
	// Password is either plain text or a bcrypt hash.
	Password string
}

// AuthController issues and revokes management sessions.
type AuthController struct {
	creds      Credentials
	secret     []byte
	sessionTTL time.Duration
	blacklist  *utils.Blacklist
}

// NewAuthController creates a controller. A zero sessionTTL issues sessions without expiry.
func NewAuthController(creds Credentials, secret []byte, sessionTTL time.Duration, blacklist *utils.Blacklist) *AuthController {
	return &AuthController{creds: creds, secret: secret, sessionTTL: sessionTTL, blacklist: blacklist}
}

// Login checks the admin credentials and returns a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	if a.creds.Username == "" {
		utils.Error(ctx, http.StatusUnauthorized, "login is disabled")
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(a.creds.Username)) == 1
	passOK := utils.CheckPassword(a.creds.Password, req.Password)
	if !userOK || !passOK {
		utils.Sugar.Infow("rejected login", "username", req.Username, "ip", ctx.ClientIP())
		utils.Error(ctx, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := utils.GenerateToken(a.secret, a.creds.Username, a.sessionTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, "failed to generate token")
		return
	}

	ctx.JSON(http.StatusOK, utils.SuccessResponse{Success: true, Token: token})
}

// Logout revokes the session that authenticated the request.
func (a *AuthController) Logout(ctx *gin.Context) {
	value, ok := ctx.Get(middleware.ContextClaimsKey)
	claims, _ := value.(*utils.Claims)
	if !ok || claims == nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid token")
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if a.blacklist != nil {
		a.blacklist.Revoke(ctx.Request.Context(), claims.ID, expiresAt)
	}
	utils.Success(ctx, http.StatusOK)
}
