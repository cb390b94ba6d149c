package handler

import (
	"CineVault/internal/security"
	"CineVault/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ListUsers returns every account. Admin only.
func ListUsers(c *gin.Context) {
	users, err := service.ListUsers()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// LockUser locks an account for the configured lockout duration.
// Admin only.
func LockUser(c *gin.Context) {
	userID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.LockUser(userID, time.Now()); err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, security.EventAccountLocked, currentUserID(c), map[string]interface{}{
		"target_user": userID, "reason": "locked by admin",
	})
	c.JSON(http.StatusOK, gin.H{"msg": "account locked"})
}

// UnlockUser clears an account's lockout window. Admin only.
func UnlockUser(c *gin.Context) {
	userID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.UnlockUser(userID); err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "account_unlocked", currentUserID(c), map[string]interface{}{
		"target_user": userID,
	})
	c.JSON(http.StatusOK, gin.H{"msg": "account unlocked"})
}

// PromoteUser grants the admin flag. Admin only.
func PromoteUser(c *gin.Context) {
	userID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.SetUserAdmin(userID, true); err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "user_promoted", currentUserID(c), map[string]interface{}{
		"target_user": userID,
	})
	c.JSON(http.StatusOK, gin.H{"msg": "user promoted"})
}

// DemoteUser revokes the admin flag. Admin only.
func DemoteUser(c *gin.Context) {
	userID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.SetUserAdmin(userID, false); err != nil {
		respondErr(c, err)
		return
	}
	auditEvent(c, "user_demoted", currentUserID(c), map[string]interface{}{
		"target_user": userID,
	})
	c.JSON(http.StatusOK, gin.H{"msg": "user demoted"})
}
