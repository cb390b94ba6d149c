package handler

import (
	"CineVault/config"
	"CineVault/internal/dto"
	"CineVault/internal/service"
	"CineVault/internal/storage"
	"CineVault/utils"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const approvedReviewLimit = 50

// ListMovies returns a paginated catalog page. Filtering and ordering
// come from query parameters so the endpoint stays cacheable.
func ListMovies(c *gin.Context) {
	req := dto.MovieListRequest{
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		OrderBy:   c.Query("order_by"),
		OrderDesc: c.Query("order") != "asc",
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		req.CategoryID = &id
	}

	movies, total, err := service.ListMovies(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MovieListResponse{
		Movies:   movies,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// SearchMovies searches titles and descriptions.
func SearchMovies(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	req := dto.MovieSearchRequest{
		Query:     query,
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		OrderBy:   c.Query("order_by"),
		OrderDesc: c.Query("order") != "asc",
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		req.CategoryID = &id
	}

	movies, total, err := service.SearchMovies(&req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MovieListResponse{
		Movies:   movies,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
}

// FeaturedMovies returns the curated front-page selection.
func FeaturedMovies(c *gin.Context) {
	movies, err := service.FeaturedMovies(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movies": movies})
}

// MovieDetail returns one movie by slug together with its rating
// summary, view count and approved reviews. Each hit counts as a view.
func MovieDetail(c *gin.Context) {
	slug := c.Param("slug")
	movie, err := service.FindMovieBySlug(c.Request.Context(), slug)
	if err != nil {
		respondErr(c, err)
		return
	}

	if err := service.RecordView(movie.ID, currentUserID(c), c.ClientIP()); err != nil {
		log.Printf("movie: record view for %d failed: %v", movie.ID, err)
	}

	avg, count, err := service.MovieRatingSummary(movie.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	views, err := service.MovieViewCount(movie.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	reviews, err := service.ApprovedReviews(movie.ID, approvedReviewLimit)
	if err != nil {
		respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MovieDetailResponse{
		Movie:         *movie,
		AverageRating: avg,
		RatingCount:   count,
		ViewCount:     views,
		Reviews:       reviews,
	})
}

// CreateMovie creates a catalog entry. Admin only.
func CreateMovie(c *gin.Context) {
	var req dto.MovieUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	movie, err := service.CreateMovie(c.Request.Context(), &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movie": movie})
}

// UpdateMovie updates a catalog entry. Admin only.
func UpdateMovie(c *gin.Context) {
	movieID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req dto.MovieUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	movie, err := service.UpdateMovie(c.Request.Context(), movieID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie": movie})
}

// DeleteMovie removes a catalog entry. Admin only.
func DeleteMovie(c *gin.Context) {
	movieID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.DeleteMovie(c.Request.Context(), movieID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "movie deleted"})
}

// UploadPoster stores a poster image in object storage and attaches it
// to the movie. Admin only.
func UploadPoster(c *gin.Context) {
	movieID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if _, err := service.FindMovieByID(movieID); err != nil {
		respondErr(c, err)
		return
	}

	fileHeader, err := c.FormFile("poster")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "poster file missing"})
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open upload failed"})
		return
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	objectName := fmt.Sprintf("posters/%d/%s%s", movieID, uuid.NewString(), ext)
	contentType := fileHeader.Header.Get("Content-Type")
	err = storage.Default.PutObject(c.Request.Context(), config.AppConfig.BucketName,
		objectName, src, fileHeader.Size, storage.PutOptions{ContentType: contentType})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store poster failed"})
		return
	}

	if err := service.SetMoviePoster(c.Request.Context(), movieID, objectName); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "poster uploaded", "object": objectName})
}

// PosterURL returns a presigned link for a movie's poster.
func PosterURL(c *gin.Context) {
	movieID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	movie, err := service.FindMovieByID(movieID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if movie.PosterObject == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "movie has no poster"})
		return
	}
	link, err := storage.Default.PresignedGetObject(c.Request.Context(),
		config.AppConfig.BucketName, movie.PosterObject, 15*time.Minute)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presign failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

// MovieFile streams the stored media file for a movie. Admin only.
func MovieFile(c *gin.Context) {
	movieID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	movie, err := service.FindMovieByID(movieID)
	if err != nil {
		respondErr(c, err)
		return
	}
	if movie.FileObject == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "movie has no stored file"})
		return
	}

	object, info, err := storage.Default.GetObject(c.Request.Context(), config.AppConfig.BucketName, movie.FileObject)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "fetch file failed"})
		return
	}
	defer object.Close()

	filename := utils.SanitizeHeaderFilename(movie.Title) + filepath.Ext(movie.FileObject)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.DataFromReader(http.StatusOK, info.Size, "application/octet-stream", object, nil)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func paramUint(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
