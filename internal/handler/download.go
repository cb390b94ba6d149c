package handler

import (
	"CineVault/internal/downloader"
	"CineVault/internal/dto"
	"CineVault/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubmitDownload enqueues a download task for a movie. When the request
// carries no URL the movie's catalog source is used. Admin only.
func SubmitDownload(c *gin.Context) {
	var req dto.DownloadSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	movie, err := service.FindMovieByID(req.MovieID)
	if err != nil {
		respondErr(c, err)
		return
	}
	source := req.URL
	if source == "" {
		source = movie.DownloadURL
	}
	if err := downloader.ValidateSourceURL(source); err != nil {
		respondErr(c, err)
		return
	}

	taskID, err := Downloads.Submit(c.Request.Context(), movie.ID, source, movie.Title, req.Priority)
	if err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "download_submitted", currentUserID(c), map[string]interface{}{
		"task_id": taskID, "movie_id": movie.ID,
	})
	c.JSON(http.StatusCreated, gin.H{"task_id": taskID})
}

// SubmitDownloadBatch enqueues several downloads in one call; invalid
// entries are reported without failing the batch. Admin only.
func SubmitDownloadBatch(c *gin.Context) {
	var req dto.DownloadBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	items := make([]downloader.BatchItem, 0, len(req.Items))
	for _, item := range req.Items {
		source := item.URL
		title := item.Title
		if source == "" || title == "" {
			if movie, err := service.FindMovieByID(item.MovieID); err == nil {
				if source == "" {
					source = movie.DownloadURL
				}
				if title == "" {
					title = movie.Title
				}
			}
		}
		items = append(items, downloader.BatchItem{MovieID: item.MovieID, Source: source, Title: title})
	}

	results := Downloads.SubmitBatch(c.Request.Context(), items, req.Priority)
	submitted := 0
	for _, r := range results {
		if r.Error == "" {
			submitted++
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "submitted": submitted})
}

// ListDownloads returns every retained task in creation order.
func ListDownloads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": Downloads.ListAll()})
}

// DownloadStatus returns one task by id.
func DownloadStatus(c *gin.Context) {
	task, err := Downloads.Status(c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// CancelDownload cancels a queued or running task.
func CancelDownload(c *gin.Context) {
	taskID := c.Param("id")
	if err := Downloads.Cancel(c.Request.Context(), taskID); err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "download_cancelled", currentUserID(c), map[string]interface{}{"task_id": taskID})
	c.JSON(http.StatusOK, gin.H{"msg": "download cancelled"})
}

// RetryDownload resubmits a failed task under a fresh id.
func RetryDownload(c *gin.Context) {
	newID, err := Downloads.Retry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": newID})
}

// PauseDownloads suspends admission of new transfers.
func PauseDownloads(c *gin.Context) {
	paused := Downloads.PauseAll(c.Request.Context())
	auditEvent(c, "downloads_paused", currentUserID(c), map[string]interface{}{"paused": paused})
	c.JSON(http.StatusOK, gin.H{"paused": paused})
}

// ResumeDownloads resumes admission after a pause.
func ResumeDownloads(c *gin.Context) {
	resumed := Downloads.ResumeAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"resumed": resumed})
}

// ClearCompletedDownloads drops completed and cancelled tasks from the
// in-memory view. Failed tasks stay visible until retried or cleared
// individually.
func ClearCompletedDownloads(c *gin.Context) {
	removed := Downloads.ClearCompleted()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// SetDownloadPriority changes a queued task's priority.
func SetDownloadPriority(c *gin.Context) {
	var req dto.DownloadPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := Downloads.SetPriority(c.Request.Context(), req.TaskID, req.Priority); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "priority updated"})
}

// OptimizeDownloadQueue adjusts the concurrency cap to the host's
// current memory and disk headroom.
func OptimizeDownloadQueue(c *gin.Context) {
	limit, err := Downloads.OptimizeQueue()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"max_concurrent": limit})
}

// DownloadStats summarizes the task history for a trailing period
// (hour, day, week or month).
func DownloadStats(c *gin.Context) {
	window := downloader.PeriodDuration(c.DefaultQuery("period", "day"))
	stats, err := History.Stats(c.Request.Context(), window)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// DownloadTrends returns per-bucket completion counts for a period.
func DownloadTrends(c *gin.Context) {
	window := downloader.PeriodDuration(c.DefaultQuery("period", "day"))
	points, err := History.Trends(c.Request.Context(), window)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trends": points})
}

// DownloadErrors groups recent failures by error message.
func DownloadErrors(c *gin.Context) {
	window := downloader.PeriodDuration(c.DefaultQuery("period", "day"))
	errorCounts, err := History.ErrorAnalysis(c.Request.Context(), window)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": errorCounts})
}

// PopularDownloads ranks movies by download count.
func PopularDownloads(c *gin.Context) {
	limit := queryInt(c, "limit", 10)
	items, err := History.Popular(c.Request.Context(), limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"popular": items})
}

// DownloadSpeed reports average and peak transfer speed for a period.
func DownloadSpeed(c *gin.Context) {
	window := downloader.PeriodDuration(c.DefaultQuery("period", "day"))
	speed, err := History.SpeedAnalysis(c.Request.Context(), window)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"speed": speed})
}
