package handler

import (
	"CineVault/internal/dto"
	"CineVault/internal/security"
	"CineVault/internal/service"
	"CineVault/utils"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Login authenticates a user and returns a token. Failed attempts feed
// the lockout counter and the audit trail.
func Login(c *gin.Context) {
	var loginRequest dto.LoginRequest
	if err := c.ShouldBind(&loginRequest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	now := time.Now()
	ip := c.ClientIP()
	userAgent := c.Request.UserAgent()

	user, err := service.FindUserByName(loginRequest.Username)
	if err != nil {
		recordLoginFailure(c, loginRequest.Username, nil, "unknown user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if user.IsLocked(now) {
		auditEvent(c, security.EventAccountLocked, &user.ID, map[string]interface{}{
			"username": user.UserName,
			"reason":   "login while locked",
		})
		c.JSON(http.StatusForbidden, gin.H{"error": "account temporarily locked"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account not activated"})
		return
	}
	if err := service.CheckPassword(user, loginRequest.Password); err != nil {
		locked, failErr := service.RecordLoginFailure(user, now)
		if failErr != nil {
			log.Printf("login: persist failure counter for %s failed: %v", user.UserName, failErr)
		}
		recordLoginFailure(c, user.UserName, &user.ID, "wrong password")
		if locked {
			auditEvent(c, security.EventAccountLocked, &user.ID, map[string]interface{}{
				"username": user.UserName,
				"failures": user.FailedLogins,
			})
			c.JSON(http.StatusForbidden, gin.H{"error": "account temporarily locked"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := service.ResetLoginFailures(user, now); err != nil {
		log.Printf("login: reset failure counter for %s failed: %v", user.UserName, err)
	}
	if err := service.RecordLoginAttempt(user.UserName, ip, userAgent, true); err != nil {
		log.Printf("login: record attempt failed: %v", err)
	}
	auditEvent(c, security.EventLoginSuccess, &user.ID, map[string]interface{}{
		"username": user.UserName,
	})

	token, err := utils.GenerateToken(user.ID, user.UserName, user.IsAdmin)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "success",
		"token":   token,
		"user":    user,
	})
}

func recordLoginFailure(c *gin.Context, username string, userID *uint64, reason string) {
	if err := service.RecordLoginAttempt(username, c.ClientIP(), c.Request.UserAgent(), false); err != nil {
		log.Printf("login: record attempt failed: %v", err)
	}
	auditEvent(c, security.EventFailedLogin, userID, map[string]interface{}{
		"username": username,
		"reason":   reason,
	})
}

// auditEvent appends a request-scoped event to the audit trail.
// Failures are logged; an audit outage must not block logins.
func auditEvent(c *gin.Context, eventType string, userID *uint64, details map[string]interface{}) {
	if Audit == nil {
		return
	}
	err := Audit.Record(c.Request.Context(), security.Event{
		EventType: eventType,
		UserID:    userID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Details:   details,
	})
	if err != nil {
		log.Printf("audit: record %s failed: %v", eventType, err)
	}
}
