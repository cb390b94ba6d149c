package service

import (
	"CineVault/internal/apperr"
	"context"
)

// CatalogResolver resolves a movie's download source for the
// scheduler's dispatch path.
type CatalogResolver struct{}

// ResolveDownload returns the stored source URL and title for a movie.
func (CatalogResolver) ResolveDownload(_ context.Context, movieID uint64) (string, string, error) {
	movie, err := FindMovieByID(movieID)
	if err != nil {
		return "", "", err
	}
	if movie.DownloadURL == "" {
		return "", "", apperr.Validation("movie %d has no download url", movieID)
	}
	return movie.DownloadURL, movie.Title, nil
}
