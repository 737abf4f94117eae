package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/evsign/repository"
	"github.com/cppla/evsign/utils"
)

// StatsController reports aggregate counts over the token records.
type StatsController struct {
	repo *repository.TokenRepository
	now  func() time.Time
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(repo *repository.TokenRepository) *StatsController {
	return &StatsController{repo: repo, now: time.Now}
}

// GetStats returns totals, the number due now and the split of last outcomes.
func (s *StatsController) GetStats(ctx *gin.Context) {
	stats, err := s.repo.Stats(ctx.Request.Context(), s.now())
	if err != nil {
		utils.ErrorWithDetails(ctx, http.StatusInternalServerError, "Failed to load stats.", err)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}
