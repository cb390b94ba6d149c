package handler

import (
	"CineVault/internal/dto"
	"CineVault/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListActors returns every actor.
func ListActors(c *gin.Context) {
	actors, err := service.ListActors()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actors": actors})
}

// ActorDetail returns one actor by id.
func ActorDetail(c *gin.Context) {
	actorID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	actor, err := service.FindActorByID(actorID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actor": actor})
}

// CreateActor creates an actor. Admin only.
func CreateActor(c *gin.Context) {
	var req dto.ActorUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	actor, err := service.CreateActor(&req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"actor": actor})
}

// UpdateActor updates an actor. Admin only.
func UpdateActor(c *gin.Context) {
	actorID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req dto.ActorUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	actor, err := service.UpdateActor(actorID, &req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actor": actor})
}

// DeleteActor deletes an actor and its movie links. Admin only.
func DeleteActor(c *gin.Context) {
	actorID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := service.DeleteActor(actorID); err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "actor deleted"})
}
