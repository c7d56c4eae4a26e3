package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hray3182/cadence/internal/models"
	"github.com/hray3182/cadence/internal/repository"
)

// GroupInput DTO for creating and updating a group
type GroupInput struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (s *Server) listGroups(c *gin.Context) {
	groups, err := s.planner.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if groups == nil {
		groups = []*models.Group{}
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) createGroup(c *gin.Context) {
	var input GroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	g := &models.Group{Name: input.Name, Color: input.Color}
	if err := s.planner.SaveGroup(c.Request.Context(), g); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (s *Server) updateGroup(c *gin.Context) {
	g, ok := s.findGroup(c)
	if !ok {
		return
	}

	var input GroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	updated := *g
	updated.Name = input.Name
	if input.Color != "" {
		updated.Color = input.Color
	}

	if err := s.planner.SaveGroup(c.Request.Context(), &updated); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, &updated)
}

func (s *Server) deleteGroup(c *gin.Context) {
	g, ok := s.findGroup(c)
	if !ok {
		return
	}
	if err := s.planner.DeleteGroup(c.Request.Context(), g.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}

// findGroup looks up the :id group, writing the error response on failure.
func (s *Server) findGroup(c *gin.Context) (*models.Group, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	groups, err := s.planner.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	respondError(c, repository.ErrNotFound)
	return nil, false
}
