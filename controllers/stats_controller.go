package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cspring/microblog/models"
)

// StatsController exposes aggregated page view counts.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a StatsController.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns the all-time total and per-path page view counts.
func (s *StatsController) GetStats(c *gin.Context) {
	var total int64
	if err := s.db.Model(&models.PageView{}).Select("COALESCE(SUM(count), 0)").Scan(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	type pathCount struct {
		Path  string `json:"path"`
		Count int64  `json:"count"`
	}
	var paths []pathCount
	if err := s.db.Model(&models.PageView{}).
		Select("path, SUM(count) AS count").
		Group("path").
		Order("count DESC").
		Scan(&paths).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"total": total, "paths": paths})
}
