package handler

import (
	"CineVault/internal/dto"
	"CineVault/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListCategories returns every category.
func ListCategories(c *gin.Context) {
	categories, err := service.ListCategories()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory creates a category. Admin only.
func CreateCategory(c *gin.Context) {
	var req dto.CategoryUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	category, err := service.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory updates a category. Admin only.
func UpdateCategory(c *gin.Context) {
	categoryID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req dto.CategoryUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	category, err := service.UpdateCategory(c.Request.Context(), categoryID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory deletes a category and detaches its movies. Admin only.
func DeleteCategory(c *gin.Context) {
	categoryID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.DeleteCategory(c.Request.Context(), categoryID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "category deleted"})
}
