package handler

import (
	"CineVault/internal/downloader"
	"CineVault/internal/dto"
	"CineVault/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CreateSchedule registers a download for a future time. Admin only.
func CreateSchedule(c *gin.Context) {
	var req dto.ScheduleCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if _, err := service.FindMovieByID(req.MovieID); err != nil {
		respondErr(c, err)
		return
	}

	scheduleID, err := Schedules.Schedule(c.Request.Context(), req.MovieID, req.ScheduledAt, req.Priority, req.BandwidthLimit)
	if err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "download_scheduled", currentUserID(c), map[string]interface{}{
		"schedule_id": scheduleID, "movie_id": req.MovieID,
		"scheduled_at": req.ScheduledAt.Format(time.RFC3339),
	})
	c.JSON(http.StatusCreated, gin.H{"schedule_id": scheduleID})
}

// ListSchedules returns pending schedules ordered by start time.
func ListSchedules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"schedules": Schedules.ListPending()})
}

// CancelSchedule removes a pending schedule.
func CancelSchedule(c *gin.Context) {
	scheduleID := c.Param("id")
	if err := Schedules.Cancel(c.Request.Context(), scheduleID); err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "schedule_cancelled", currentUserID(c), map[string]interface{}{"schedule_id": scheduleID})
	c.JSON(http.StatusOK, gin.H{"msg": "schedule cancelled"})
}

// Reschedule moves a pending schedule to a new time.
func Reschedule(c *gin.Context) {
	var req dto.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := Schedules.Reschedule(c.Request.Context(), req.ScheduleID, req.ScheduledAt); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "schedule updated"})
}

// OptimalSchedule proposes start times for a batch of movies without
// persisting anything. High-priority movies land in the earliest waves.
func OptimalSchedule(c *gin.Context) {
	var req dto.OptimalScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	start := req.Start
	if start.IsZero() {
		start = time.Now()
	}
	candidates := make([]downloader.Candidate, len(req.Candidates))
	for i, m := range req.Candidates {
		candidates[i] = downloader.Candidate{MovieID: m.MovieID, Priority: m.Priority}
	}
	c.JSON(http.StatusOK, gin.H{"assignments": Schedules.OptimalSchedule(start, candidates)})
}
