package dto

import "CineVault/model"

// MovieListResponse is one catalog page.
type MovieListResponse struct {
	Movies   []model.Movie `json:"movies"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// MovieDetailResponse bundles a movie with its derived figures.
type MovieDetailResponse struct {
	Movie         model.Movie    `json:"movie"`
	AverageRating float64        `json:"average_rating"`
	RatingCount   int64          `json:"rating_count"`
	ViewCount     int64          `json:"view_count"`
	Reviews       []model.Review `json:"reviews"`
}

// DashboardResponse is the admin dashboard payload.
type DashboardResponse struct {
	TotalMovies    int64            `json:"total_movies"`
	TotalUsers     int64            `json:"total_users"`
	ActiveUsers    int64            `json:"active_users"`
	TotalViews     int64            `json:"total_views"`
	ViewsToday     int64            `json:"views_today"`
	PendingReviews int64            `json:"pending_reviews"`
	StorageUsed    int64            `json:"storage_used"`
	StoragePercent float64          `json:"storage_percent"`
	DailyViews     []DailyViewPoint `json:"daily_views"`
	TopMovies      []TopMovieEntry  `json:"top_movies"`
	Categories     []CategoryCount  `json:"categories"`
}

// CategoryCount is one row of the movies-per-category table.
type CategoryCount struct {
	CategoryID uint64 `json:"category_id"`
	Name       string `json:"name"`
	Movies     int64  `json:"movies"`
}

// DailyViewPoint is one day of view counts.
type DailyViewPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// TopMovieEntry is one row of the most-viewed table.
type TopMovieEntry struct {
	MovieID uint64 `json:"movie_id"`
	Title   string `json:"title"`
	Views   int64  `json:"views"`
}
