package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
	"github.com/johnassefatheeth/pm-f-d/internal/server/service"
	"github.com/johnassefatheeth/pm-f-d/pkg/logger"
)

// UserIDKey is the gin context key the auth middleware stores the caller under.
const UserIDKey = "user_id"

// ProjectService is what the handlers need from the service layer.
type ProjectService interface {
	ListProjects(ctx context.Context, owner string) ([]model.Project, error)
	CreateProject(ctx context.Context, owner string, in model.ProjectInput) (model.Project, error)
	GetProject(ctx context.Context, owner, projectID string) (model.Project, error)
	CreateMilestone(ctx context.Context, owner, projectID string, in model.MilestoneInput) (model.Milestone, error)
	UpdateMilestone(ctx context.Context, owner, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error)
	ReorderMilestones(ctx context.Context, owner, projectID string, entries []model.OrderEntry) error
}

type ProjectHandler struct {
	svc    ProjectService
	logger *zap.Logger
}

func NewProjectHandler(svc ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// projectDetail always carries a milestones array, even when empty.
type projectDetail struct {
	model.Project
	Milestones []model.Milestone `json:"milestones"`
}

type reorderRequest struct {
	Milestones []model.OrderEntry `json:"milestones"`
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	owner := c.GetString(UserIDKey)
	projects, err := h.svc.ListProjects(c.Request.Context(), owner)
	if err != nil {
		h.fail(c, "ListProjects", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"projects": projects}})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req model.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	p, err := h.svc.CreateProject(c.Request.Context(), c.GetString(UserIDKey), req)
	if err != nil {
		h.fail(c, "CreateProject", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"project": p}})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	p, err := h.svc.GetProject(c.Request.Context(), c.GetString(UserIDKey), c.Param("projectId"))
	if err != nil {
		h.fail(c, "GetProject", err)
		return
	}
	ms := p.Milestones
	if ms == nil {
		ms = []model.Milestone{}
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"project": projectDetail{Project: p, Milestones: ms}}})
}

func (h *ProjectHandler) CreateMilestone(c *gin.Context) {
	var req model.MilestoneInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Milestone name and due date are required."})
		return
	}

	m, err := h.svc.CreateMilestone(c.Request.Context(), c.GetString(UserIDKey), c.Param("projectId"), req)
	if err != nil {
		h.fail(c, "CreateMilestone", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"milestone": m}})
}

func (h *ProjectHandler) UpdateMilestone(c *gin.Context) {
	var patch model.MilestonePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	m, err := h.svc.UpdateMilestone(c.Request.Context(), c.GetString(UserIDKey), c.Param("projectId"), c.Param("milestoneId"), patch)
	if err != nil {
		h.fail(c, "UpdateMilestone", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"milestone": m}})
}

func (h *ProjectHandler) ReorderMilestones(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	projectID := c.Param("projectId")
	if err := h.svc.ReorderMilestones(c.Request.Context(), c.GetString(UserIDKey), projectID, req.Milestones); err != nil {
		h.fail(c, "ReorderMilestones", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Milestones reordered."})
}

// fail maps service errors onto status codes. Unexpected errors are logged
// and hidden behind a generic message.
func (h *ProjectHandler) fail(c *gin.Context, op string, err error) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		msg := strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
		log.Warn(op+": invalid input", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"message": msg})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found."})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
	default:
		log.Error(op+": failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error."})
	}
}
