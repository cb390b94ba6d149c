package handler

import (
	"CineVault/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard returns the admin overview: catalog totals, view activity,
// pending moderation and storage usage.
func Dashboard(c *gin.Context) {
	stats, err := service.DashboardStats(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
