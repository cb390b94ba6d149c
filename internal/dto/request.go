package dto

import "time"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	FirstPassword string `json:"first-password" binding:"required"`
	LastPassword  string `json:"second-password" binding:"required"`
	Email         string `json:"email" binding:"required"`
}

type MovieListRequest struct {
	CategoryID *uint64 `json:"category_id"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	OrderBy    string  `json:"order_by"`
	OrderDesc  bool    `json:"order_desc"`
}

type MovieSearchRequest struct {
	Query      string  `json:"query" binding:"required"`
	CategoryID *uint64 `json:"category_id"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	OrderBy    string  `json:"order_by"`
	OrderDesc  bool    `json:"order_desc"`
}

type MovieUpsertRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	ReleaseDate *time.Time `json:"release_date"`
	Duration    int        `json:"duration"`
	CategoryID  *uint64    `json:"category_id"`
	TrailerURL  string     `json:"trailer_url"`
	DownloadURL string     `json:"download_url"`
	ActorIDs    []uint64   `json:"actor_ids"`
	IsFeatured  bool       `json:"is_featured"`
}

type CategoryUpsertRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type ActorUpsertRequest struct {
	Name        string     `json:"name" binding:"required"`
	Biography   string     `json:"biography"`
	BirthDate   *time.Time `json:"birth_date"`
	Nationality string     `json:"nationality"`
	ImageURL    string     `json:"image_url"`
}

type ReviewCreateRequest struct {
	MovieID uint64 `json:"movie_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type ReviewModerateRequest struct {
	ReviewID uint64 `json:"review_id" binding:"required"`
	Approve  bool   `json:"approve"`
}

type RatingRequest struct {
	MovieID uint64 `json:"movie_id" binding:"required"`
	Value   int    `json:"value" binding:"required,gte=1,lte=5"`
}

type DownloadSubmitRequest struct {
	MovieID  uint64 `json:"movie_id" binding:"required"`
	URL      string `json:"url"`
	Priority int    `json:"priority"`
}

type DownloadBatchRequest struct {
	Items []DownloadBatchItem `json:"items" binding:"required"`
	// Priority applies to every item in the batch.
	Priority int `json:"priority"`
}

type DownloadBatchItem struct {
	MovieID uint64 `json:"movie_id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
}

type DownloadPriorityRequest struct {
	TaskID   string `json:"task_id" binding:"required"`
	Priority int    `json:"priority"`
}

type ScheduleCreateRequest struct {
	MovieID        uint64    `json:"movie_id" binding:"required"`
	ScheduledAt    time.Time `json:"scheduled_at" binding:"required"`
	Priority       int       `json:"priority"`
	BandwidthLimit *int64    `json:"bandwidth_limit"`
}

type RescheduleRequest struct {
	ScheduleID  string    `json:"schedule_id" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type OptimalScheduleRequest struct {
	Start      time.Time              `json:"start"`
	Candidates []OptimalScheduleMovie `json:"movies" binding:"required"`
}

type OptimalScheduleMovie struct {
	MovieID  uint64 `json:"movie_id"`
	Priority int    `json:"priority"`
}

type BlacklistAddRequest struct {
	IPAddress string `json:"ip_address" binding:"required"`
	Reason    string `json:"reason"`
	// DurationHours of 0 means permanent.
	DurationHours int `json:"duration_hours"`
}
