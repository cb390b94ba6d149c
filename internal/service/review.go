package service

import (
	"CineVault/internal/apperr"
	"CineVault/internal/dto"
	"CineVault/internal/repo"
	"CineVault/model"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateReview submits a review in the pending state; it stays hidden
// until a moderator approves it.
func CreateReview(userID uint64, req *dto.ReviewCreateRequest) (*model.Review, error) {
	if _, err := FindMovieByID(req.MovieID); err != nil {
		return nil, err
	}
	review := &model.Review{
		Content: req.Content,
		UserID:  userID,
		MovieID: req.MovieID,
		Status:  model.ReviewPending,
	}
	if err := repo.Db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// ApprovedReviews returns visible reviews for a movie, newest first.
func ApprovedReviews(movieID uint64, limit int) ([]model.Review, error) {
	if limit <= 0 {
		limit = 20
	}
	var reviews []model.Review
	err := repo.Db.Where("movie_id = ? AND status = ?", movieID, model.ReviewApproved).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	return reviews, err
}

// PendingReviews returns reviews awaiting moderation, oldest first.
func PendingReviews() ([]model.Review, error) {
	var reviews []model.Review
	err := repo.Db.Where("status = ?", model.ReviewPending).
		Order("created_at ASC").
		Find(&reviews).Error
	return reviews, err
}

// ModerateReview approves or rejects a pending review.
func ModerateReview(req *dto.ReviewModerateRequest) error {
	var review model.Review
	err := repo.Db.Where("id = ?", req.ReviewID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("review %d not found", req.ReviewID)
	}
	if err != nil {
		return err
	}
	if review.Status != model.ReviewPending {
		return apperr.InvalidTransition("review %d already moderated", req.ReviewID)
	}
	status := model.ReviewRejected
	if req.Approve {
		status = model.ReviewApproved
	}
	return repo.Db.Model(&review).Update("status", status).Error
}

// CountPendingReviews counts reviews awaiting moderation.
func CountPendingReviews() (int64, error) {
	var count int64
	err := repo.Db.Model(&model.Review{}).Where("status = ?", model.ReviewPending).Count(&count).Error
	return count, err
}

// RateMovie records or replaces the caller's rating for a movie.
func RateMovie(userID uint64, req *dto.RatingRequest) error {
	if req.Value < 1 || req.Value > 5 {
		return apperr.Validation("rating must be between 1 and 5")
	}
	if _, err := FindMovieByID(req.MovieID); err != nil {
		return err
	}
	rating := &model.Rating{
		UserID:  userID,
		MovieID: req.MovieID,
		Value:   req.Value,
	}
	return repo.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(rating).Error
}
