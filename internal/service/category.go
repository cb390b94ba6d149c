package service

import (
	"CineVault/internal/apperr"
	"CineVault/internal/dto"
	"CineVault/internal/repo"
	"CineVault/model"
	"CineVault/utils"
	"context"
	"errors"

	"gorm.io/gorm"
)

// ListCategories returns every category ordered by name.
func ListCategories() ([]model.Category, error) {
	var categories []model.Category
	err := repo.Db.Order("name ASC").Find(&categories).Error
	return categories, err
}

// CreateCategory creates a category with a derived slug.
func CreateCategory(ctx context.Context, req *dto.CategoryUpsertRequest) (*model.Category, error) {
	category := &model.Category{
		Name:        req.Name,
		Slug:        utils.Slugify(req.Name),
		Description: req.Description,
	}
	if err := repo.Db.Create(category).Error; err != nil {
		return nil, err
	}
	_ = utils.InvalidateMovieListCache(ctx)
	return category, nil
}

// UpdateCategory renames a category.
func UpdateCategory(ctx context.Context, categoryID uint64, req *dto.CategoryUpsertRequest) (*model.Category, error) {
	var category model.Category
	err := repo.Db.Where("id = ?", categoryID).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("category %d not found", categoryID)
	}
	if err != nil {
		return nil, err
	}
	category.Name = req.Name
	category.Slug = utils.Slugify(req.Name)
	category.Description = req.Description
	if err := repo.Db.Save(&category).Error; err != nil {
		return nil, err
	}
	_ = utils.InvalidateMovieListCache(ctx)
	return &category, nil
}

// DeleteCategory removes a category. Movies keep a dangling nil
// category rather than cascading.
func DeleteCategory(ctx context.Context, categoryID uint64) error {
	if err := repo.Db.Model(&model.Movie{}).Where("category_id = ?", categoryID).
		Update("category_id", nil).Error; err != nil {
		return err
	}
	res := repo.Db.Delete(&model.Category{}, categoryID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("category %d not found", categoryID)
	}
	_ = utils.InvalidateMovieListCache(ctx)
	return nil
}
