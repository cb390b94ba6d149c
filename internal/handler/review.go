package handler

import (
	"CineVault/internal/dto"
	"CineVault/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateReview submits a review for moderation. Requires auth.
func CreateReview(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	var req dto.ReviewCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	review, err := service.CreateReview(*userID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review, "msg": "review pending moderation"})
}

// RateMovie records or replaces the caller's star rating. Requires auth.
func RateMovie(c *gin.Context) {
	userID := currentUserID(c)
	if userID == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	var req dto.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := service.RateMovie(*userID, &req); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "rating saved"})
}

// PendingReviews lists reviews awaiting moderation. Admin only.
func PendingReviews(c *gin.Context) {
	reviews, err := service.PendingReviews()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// ModerateReview approves or rejects a pending review. Admin only.
func ModerateReview(c *gin.Context) {
	var req dto.ReviewModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := service.ModerateReview(&req); err != nil {
		respondErr(c, err)
		return
	}
	verdict := "rejected"
	if req.Approve {
		verdict = "approved"
	}
	c.JSON(http.StatusOK, gin.H{"msg": "review " + verdict})
}
