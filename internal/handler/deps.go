package handler

import (
	"CineVault/internal/apperr"
	"CineVault/internal/downloader"
	"CineVault/internal/security"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Package-level collaborators, wired once at startup.
var (
	Downloads *downloader.Manager
	Schedules *downloader.Scheduler
	History   *downloader.Analytics
	Audit     *security.Aggregator
)

// Init wires the handler package to its collaborators.
func Init(manager *downloader.Manager, scheduler *downloader.Scheduler, analytics *downloader.Analytics, aggregator *security.Aggregator) {
	Downloads = manager
	Schedules = scheduler
	History = analytics
	Audit = aggregator
}

// respondErr maps application error kinds onto HTTP status codes.
func respondErr(c *gin.Context, err error) {
	switch {
	case apperr.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperr.IsInvalidTransition(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case apperr.IsStorage(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "storage unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// currentUserID returns the authenticated user id, or nil for
// anonymous requests.
func currentUserID(c *gin.Context) *uint64 {
	raw, ok := c.Get("user_id")
	if !ok {
		return nil
	}
	id, ok := raw.(uint64)
	if !ok || id == 0 {
		return nil
	}
	return &id
}
