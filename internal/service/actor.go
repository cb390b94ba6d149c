package service

import (
	"CineVault/internal/apperr"
	"CineVault/internal/dto"
	"CineVault/internal/repo"
	"CineVault/model"
	"errors"

	"gorm.io/gorm"
)

// ListActors returns every actor ordered by name.
func ListActors() ([]model.Actor, error) {
	var actors []model.Actor
	err := repo.Db.Order("name ASC").Find(&actors).Error
	return actors, err
}

// FindActorByID returns one actor.
func FindActorByID(actorID uint64) (*model.Actor, error) {
	var actor model.Actor
	err := repo.Db.Where("id = ?", actorID).First(&actor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("actor %d not found", actorID)
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

// CreateActor creates an actor.
func CreateActor(req *dto.ActorUpsertRequest) (*model.Actor, error) {
	actor := &model.Actor{
		Name:        req.Name,
		Biography:   req.Biography,
		BirthDate:   req.BirthDate,
		Nationality: req.Nationality,
		ImageURL:    req.ImageURL,
	}
	if err := repo.Db.Create(actor).Error; err != nil {
		return nil, err
	}
	return actor, nil
}

// UpdateActor applies an upsert request to an existing actor.
func UpdateActor(actorID uint64, req *dto.ActorUpsertRequest) (*model.Actor, error) {
	actor, err := FindActorByID(actorID)
	if err != nil {
		return nil, err
	}
	actor.Name = req.Name
	actor.Biography = req.Biography
	actor.BirthDate = req.BirthDate
	actor.Nationality = req.Nationality
	actor.ImageURL = req.ImageURL
	if err := repo.Db.Save(actor).Error; err != nil {
		return nil, err
	}
	return actor, nil
}

// DeleteActor removes an actor and its movie links.
func DeleteActor(actorID uint64) error {
	if _, err := FindActorByID(actorID); err != nil {
		return err
	}
	if err := repo.Db.Exec("DELETE FROM movie_actor WHERE actor_id = ?", actorID).Error; err != nil {
		return err
	}
	return repo.Db.Delete(&model.Actor{}, actorID).Error
}
