package service

import (
	"CineVault/config"
	"CineVault/internal/dto"
	"CineVault/internal/repo"
	"CineVault/internal/storage"
	"CineVault/model"
	"CineVault/utils"
	"context"
	"time"
)

const dashboardCacheTTL = time.Minute

// DashboardStats assembles the admin dashboard, served from cache when
// the minute-old copy is still fresh.
func DashboardStats(ctx context.Context) (*dto.DashboardResponse, error) {
	var cached dto.DashboardResponse
	if utils.GetDashboardFromCache(ctx, &cached) {
		return &cached, nil
	}

	out := &dto.DashboardResponse{}
	if err := repo.Db.Model(&model.Movie{}).Count(&out.TotalMovies).Error; err != nil {
		return nil, err
	}
	var err error
	if out.TotalUsers, out.ActiveUsers, err = CountUsers(); err != nil {
		return nil, err
	}
	if err := repo.Db.Model(&model.MovieView{}).Count(&out.TotalViews).Error; err != nil {
		return nil, err
	}
	today := time.Now().Truncate(24 * time.Hour)
	if err := repo.Db.Model(&model.MovieView{}).
		Where("viewed_at >= ?", today).
		Count(&out.ViewsToday).Error; err != nil {
		return nil, err
	}
	if out.PendingReviews, err = CountPendingReviews(); err != nil {
		return nil, err
	}

	if out.StorageUsed, err = StorageUsedBytes(ctx); err == nil {
		if capacity := config.AppConfig.StorageCapacityBytes; capacity > 0 {
			out.StoragePercent = float64(out.StorageUsed) / float64(capacity) * 100
		}
	} else {
		// Object store outages degrade the dashboard, never fail it.
		out.StorageUsed = 0
	}

	if out.DailyViews, err = DailyViews(7); err != nil {
		return nil, err
	}
	if out.TopMovies, err = TopMovies(5); err != nil {
		return nil, err
	}
	if out.Categories, err = CategoryCounts(); err != nil {
		return nil, err
	}

	_ = utils.SetDashboardToCache(ctx, out, dashboardCacheTTL)
	return out, nil
}

// DailyViews buckets views per day over the trailing n days, oldest
// first. Days without views still appear with a zero count.
func DailyViews(days int) ([]dto.DailyViewPoint, error) {
	if days <= 0 {
		days = 7
	}
	start := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))

	type row struct {
		Day   string
		Count int64
	}
	var rows []row
	err := repo.Db.Model(&model.MovieView{}).
		Select("DATE_FORMAT(viewed_at, '%Y-%m-%d') AS day, COUNT(*) AS count").
		Where("viewed_at >= ?", start).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int64, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r.Count
	}
	out := make([]dto.DailyViewPoint, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i).Format("2006-01-02")
		out = append(out, dto.DailyViewPoint{Date: day, Count: byDay[day]})
	}
	return out, nil
}

// TopMovies returns the most viewed movies.
func TopMovies(limit int) ([]dto.TopMovieEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	var entries []dto.TopMovieEntry
	err := repo.Db.Model(&model.MovieView{}).
		Select("movie_view.movie_id AS movie_id, movie.title AS title, COUNT(*) AS views").
		Joins("JOIN movie ON movie.id = movie_view.movie_id").
		Group("movie_view.movie_id, movie.title").
		Order("views DESC").
		Limit(limit).
		Scan(&entries).Error
	return entries, err
}

// CategoryCounts returns movies per category, busiest first.
func CategoryCounts() ([]dto.CategoryCount, error) {
	var counts []dto.CategoryCount
	err := repo.Db.Model(&model.Category{}).
		Select("category.id AS category_id, category.name AS name, COUNT(movie.id) AS movies").
		Joins("LEFT JOIN movie ON movie.category_id = category.id").
		Group("category.id, category.name").
		Order("movies DESC").
		Scan(&counts).Error
	return counts, err
}

// StorageUsedBytes sums object sizes in the media bucket.
func StorageUsedBytes(ctx context.Context) (int64, error) {
	return storage.Default.UsedBytes(ctx, config.AppConfig.BucketName)
}

// StorageUsagePercent reports bucket usage against configured capacity.
func StorageUsagePercent(ctx context.Context) (float64, error) {
	used, err := StorageUsedBytes(ctx)
	if err != nil {
		return 0, err
	}
	capacity := config.AppConfig.StorageCapacityBytes
	if capacity <= 0 {
		return 0, nil
	}
	return float64(used) / float64(capacity) * 100, nil
}
