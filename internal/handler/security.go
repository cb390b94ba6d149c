package handler

import (
	"CineVault/internal/dto"
	"CineVault/internal/security"
	"CineVault/internal/service"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOverview returns the aggregate security dashboard: failed
// login totals, locked accounts, subsystem health and active alerts.
func SecurityOverview(c *gin.Context) {
	overview, err := Audit.Overview(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// SecurityAlerts returns the currently firing alerts.
func SecurityAlerts(c *gin.Context) {
	alerts, err := Audit.ComputeAlerts(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// AuditTrail returns a filtered page of the audit trail, newest first.
func AuditTrail(c *gin.Context) {
	filter, err := auditFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := Audit.Query(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// ExportAuditCSV streams the filtered audit trail as a CSV download.
func ExportAuditCSV(c *gin.Context) {
	filter, err := auditFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("security-audit-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := Audit.ExportCSV(c.Request.Context(), filter, c.Writer); err != nil {
		// Headers are already out; all we can do is log.
		log.Printf("audit: csv export failed: %v", err)
	}
}

func auditFilter(c *gin.Context) (security.Filter, error) {
	filter := security.Filter{
		Severity:  c.Query("severity"),
		EventType: c.Query("event_type"),
		Page:      queryInt(c, "page", 1),
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			return security.Filter{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", raw)
		}
		filter.Date = day
	}
	return filter, nil
}

// ListBlacklist returns active blacklist entries.
func ListBlacklist(c *gin.Context) {
	entries, err := service.ListBlacklist()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blacklist": entries})
}

// AddBlacklist blocks an IP, optionally for a limited duration.
func AddBlacklist(c *gin.Context) {
	var req dto.BlacklistAddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	userID := currentUserID(c)
	entry, err := service.BlacklistIP(c.Request.Context(), &req, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "ip_blacklisted", userID, map[string]interface{}{
		"ip": req.IPAddress, "reason": req.Reason, "duration_hours": req.DurationHours,
	})
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// RemoveBlacklist unblocks an IP by entry id.
func RemoveBlacklist(c *gin.Context) {
	entryID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.UnblacklistIP(entryID); err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "ip_blacklist_removed", currentUserID(c), map[string]interface{}{"entry_id": entryID})
	c.JSON(http.StatusOK, gin.H{"msg": "blacklist entry removed"})
}

// BlacklistGuard rejects requests from blacklisted IPs before any
// other processing. Lookup failures fail open so a database outage
// does not take the whole site down.
func BlacklistGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		blocked, err := service.IsIPBlacklisted(c.ClientIP())
		if err != nil {
			log.Printf("blacklist: lookup for %s failed: %v", c.ClientIP(), err)
			c.Next()
			return
		}
		if blocked {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}
