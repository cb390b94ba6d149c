package service

import (
	"CineVault/config"
	"CineVault/internal/apperr"
	"CineVault/internal/dto"
	"CineVault/internal/repo"
	"CineVault/internal/storage"
	"CineVault/model"
	"CineVault/utils"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

const movieCacheTTL = 5 * time.Minute

// ListMovies returns one catalog page, served from cache when possible.
func ListMovies(ctx context.Context, req *dto.MovieListRequest) ([]model.Movie, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}
	var categoryKey uint64
	if req.CategoryID != nil {
		categoryKey = *req.CategoryID
	}
	if cached, ok := utils.GetMovieListFromCache(ctx, categoryKey, req.Page, req.PageSize, req.OrderBy, req.OrderDesc); ok {
		return cached.Movies, cached.Total, nil
	}

	query := repo.Db.Model(&model.Movie{}).Preload("Category")
	if req.CategoryID != nil && *req.CategoryID != 0 {
		query = query.Where("category_id = ?", *req.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	if orderBy := sanitizeOrderBy(req.OrderBy); orderBy != "" {
		if req.OrderDesc {
			order = orderBy + " DESC"
		} else {
			order = orderBy + " ASC"
		}
	}

	var movies []model.Movie
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order(order).Offset(offset).Limit(req.PageSize).Find(&movies).Error; err != nil {
		return nil, 0, err
	}

	_ = utils.SetMovieListToCache(ctx, categoryKey, req.Page, req.PageSize, req.OrderBy, req.OrderDesc,
		&utils.MovieListCache{Movies: movies, Total: total}, movieCacheTTL)
	return movies, total, nil
}

// SearchMovies searches titles and descriptions.
func SearchMovies(req *dto.MovieSearchRequest) ([]model.Movie, int64, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 100 {
		req.PageSize = 20
	}

	pattern := fmt.Sprintf("%%%s%%", req.Query)
	query := repo.Db.Model(&model.Movie{}).Preload("Category").
		Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	if req.CategoryID != nil && *req.CategoryID != 0 {
		query = query.Where("category_id = ?", *req.CategoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "created_at DESC"
	if orderBy := sanitizeOrderBy(req.OrderBy); orderBy != "" {
		if req.OrderDesc {
			order = orderBy + " DESC"
		} else {
			order = orderBy + " ASC"
		}
	}

	var movies []model.Movie
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order(order).Offset(offset).Limit(req.PageSize).Find(&movies).Error; err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

// FeaturedMovies returns the featured carousel, cached.
func FeaturedMovies(ctx context.Context) ([]model.Movie, error) {
	if cached, ok := utils.GetFeaturedMoviesFromCache(ctx); ok {
		return cached, nil
	}
	var movies []model.Movie
	err := repo.Db.Preload("Category").
		Where("is_featured = ?", true).
		Order("created_at DESC").
		Limit(12).
		Find(&movies).Error
	if err != nil {
		return nil, err
	}
	_ = utils.SetFeaturedMoviesToCache(ctx, movies, movieCacheTTL)
	return movies, nil
}

// FindMovieBySlug returns a movie with its associations.
func FindMovieBySlug(ctx context.Context, slug string) (*model.Movie, error) {
	if cached, ok := utils.GetMovieDetailFromCache(ctx, slug); ok {
		return cached, nil
	}
	var movie model.Movie
	err := repo.Db.Preload("Category").Preload("Actors").
		Where("slug = ?", slug).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("movie %s not found", slug)
	}
	if err != nil {
		return nil, err
	}
	_ = utils.SetMovieDetailToCache(ctx, slug, &movie, movieCacheTTL)
	return &movie, nil
}

// FindMovieByID returns a movie by primary key.
func FindMovieByID(movieID uint64) (*model.Movie, error) {
	var movie model.Movie
	err := repo.Db.Preload("Category").Preload("Actors").
		Where("id = ?", movieID).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("movie %d not found", movieID)
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// CreateMovie creates a catalog entry and derives its slug from the
// title, suffixing on collision. A short Redis lock serializes slug
// allocation across instances.
func CreateMovie(ctx context.Context, req *dto.MovieUpsertRequest) (*model.Movie, error) {
	lock := repo.NewRedisLock(repo.Redis, "lock:movie_slug", 5*time.Second)
	if err := lock.Lock(ctx); err == nil {
		defer lock.Unlock(ctx)
	}

	slug, err := uniqueSlug(req.Title, 0)
	if err != nil {
		return nil, err
	}
	movie := &model.Movie{
		Title:       req.Title,
		Slug:        slug,
		Description: req.Description,
		ReleaseDate: req.ReleaseDate,
		Duration:    req.Duration,
		CategoryID:  req.CategoryID,
		TrailerURL:  req.TrailerURL,
		DownloadURL: req.DownloadURL,
		IsFeatured:  req.IsFeatured,
	}
	if err := repo.Db.Create(movie).Error; err != nil {
		return nil, err
	}
	if len(req.ActorIDs) > 0 {
		if err := replaceActors(movie, req.ActorIDs); err != nil {
			return nil, err
		}
	}
	_ = utils.InvalidateMovieListCache(ctx)
	_ = utils.InvalidateDashboardCache(ctx)
	return movie, nil
}

// UpdateMovie applies an upsert request to an existing movie. A title
// change regenerates the slug.
func UpdateMovie(ctx context.Context, movieID uint64, req *dto.MovieUpsertRequest) (*model.Movie, error) {
	movie, err := FindMovieByID(movieID)
	if err != nil {
		return nil, err
	}
	oldSlug := movie.Slug
	if req.Title != movie.Title {
		slug, err := uniqueSlug(req.Title, movieID)
		if err != nil {
			return nil, err
		}
		movie.Slug = slug
	}
	movie.Title = req.Title
	movie.Description = req.Description
	movie.ReleaseDate = req.ReleaseDate
	movie.Duration = req.Duration
	movie.CategoryID = req.CategoryID
	movie.TrailerURL = req.TrailerURL
	movie.DownloadURL = req.DownloadURL
	movie.IsFeatured = req.IsFeatured
	if err := repo.Db.Save(movie).Error; err != nil {
		return nil, err
	}
	if req.ActorIDs != nil {
		if err := replaceActors(movie, req.ActorIDs); err != nil {
			return nil, err
		}
	}
	_ = utils.InvalidateMovieListCache(ctx)
	_ = utils.InvalidateMovieDetailCache(ctx, oldSlug)
	_ = utils.InvalidateMovieDetailCache(ctx, movie.Slug)
	return movie, nil
}

// DeleteMovie removes a movie; dependent rows cascade. Stored objects
// are removed best effort so a storage outage cannot block the delete.
func DeleteMovie(ctx context.Context, movieID uint64) error {
	movie, err := FindMovieByID(movieID)
	if err != nil {
		return err
	}
	if err := repo.Db.Delete(&model.Movie{}, movieID).Error; err != nil {
		return err
	}
	for _, object := range []string{movie.PosterObject, movie.FileObject} {
		if object == "" {
			continue
		}
		if err := storage.Default.RemoveObject(ctx, config.AppConfig.BucketName, object); err != nil {
			log.Printf("movie: remove object %s failed: %v", object, err)
		}
	}
	_ = utils.InvalidateMovieListCache(ctx)
	_ = utils.InvalidateMovieDetailCache(ctx, movie.Slug)
	_ = utils.InvalidateDashboardCache(ctx)
	return nil
}

// SetMoviePoster records the uploaded poster object.
func SetMoviePoster(ctx context.Context, movieID uint64, objectName string) error {
	movie, err := FindMovieByID(movieID)
	if err != nil {
		return err
	}
	if err := repo.Db.Model(&model.Movie{}).Where("id = ?", movieID).
		Update("poster_object", objectName).Error; err != nil {
		return err
	}
	_ = utils.InvalidateMovieListCache(ctx)
	_ = utils.InvalidateMovieDetailCache(ctx, movie.Slug)
	return nil
}

// SetMovieFile records the transferred media object on the movie.
func SetMovieFile(movieID uint64, objectName string, size int64) error {
	return repo.Db.Model(&model.Movie{}).Where("id = ?", movieID).
		Updates(map[string]interface{}{
			"file_object": objectName,
			"file_size":   size,
		}).Error
}

// RecordView appends a view row.
func RecordView(movieID uint64, userID *uint64, ip string) error {
	view := &model.MovieView{
		MovieID:   movieID,
		UserID:    userID,
		IPAddress: ip,
		ViewedAt:  time.Now(),
	}
	return repo.Db.Create(view).Error
}

// MovieRatingSummary returns the average and count for one movie.
func MovieRatingSummary(movieID uint64) (float64, int64, error) {
	type row struct {
		Avg   float64
		Count int64
	}
	var r row
	err := repo.Db.Model(&model.Rating{}).
		Select("COALESCE(AVG(value), 0) AS avg, COUNT(*) AS count").
		Where("movie_id = ?", movieID).
		Scan(&r).Error
	return r.Avg, r.Count, err
}

// MovieViewCount counts recorded views for one movie.
func MovieViewCount(movieID uint64) (int64, error) {
	var count int64
	err := repo.Db.Model(&model.MovieView{}).Where("movie_id = ?", movieID).Count(&count).Error
	return count, err
}

func uniqueSlug(title string, excludeID uint64) (string, error) {
	base := utils.Slugify(title)
	if base == "" {
		base = "movie"
	}
	slug := base
	for i := 2; ; i++ {
		var count int64
		query := repo.Db.Model(&model.Movie{}).Where("slug = ?", slug)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func replaceActors(movie *model.Movie, actorIDs []uint64) error {
	var actors []model.Actor
	if len(actorIDs) > 0 {
		if err := repo.Db.Where("id IN ?", actorIDs).Find(&actors).Error; err != nil {
			return err
		}
	}
	return repo.Db.Model(movie).Association("Actors").Replace(actors)
}
