package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/pkg/response"
)

type subjectService interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.SubjectDetail, error)
	Create(ctx context.Context, req models.CreateSubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, id string, req models.UpdateSubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, ids []string) error
	AddTeachers(ctx context.Context, subjectID string, req models.SubjectTeachersRequest) error
	RemoveTeachers(ctx context.Context, subjectID string, req models.SubjectTeachersRequest) error
}

// SubjectHandler handles subject endpoints.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc subjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// List godoc
// @Summary List subjects
// @Tags Subjects
// @Produce json
// @Param class_id query string false "Filter by class"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /subjects [get]
func (h *SubjectHandler) List(c *gin.Context) {
	filter := models.SubjectFilter{
		ClassID: c.Query("class_id"),
		Search:  strings.TrimSpace(c.Query("search")),
	}
	filter.Page, filter.PageSize = pageQuery(c)
	subjects, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, pagination)
}

// Get godoc
// @Summary Get subject with teachers, groups and hours
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Create godoc
// @Summary Create subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param payload body models.CreateSubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req models.CreateSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Update godoc
// @Summary Update subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.UpdateSubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	var req models.UpdateSubjectRequest
	if !bindJSON(c, &req) {
		return
	}
	subject, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete subjects, all or none
// @Tags Subjects
// @Accept json
// @Param payload body models.BatchIDsRequest true "Subject IDs"
// @Success 204
// @Router /subjects [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	var req models.BatchIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), req.IDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddTeachers godoc
// @Summary Assign teachers to a subject
// @Tags Subjects
// @Accept json
// @Param id path string true "Subject ID"
// @Param payload body models.SubjectTeachersRequest true "Teacher IDs"
// @Success 204
// @Router /subjects/{id}/teachers [post]
func (h *SubjectHandler) AddTeachers(c *gin.Context) {
	var req models.SubjectTeachersRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.AddTeachers(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveTeachers godoc
// @Summary Unassign teachers from a subject
// @Tags Subjects
// @Accept json
// @Param id path string true "Subject ID"
// @Param payload body models.SubjectTeachersRequest true "Teacher IDs"
// @Success 204
// @Failure 422 {object} response.Envelope
// @Router /subjects/{id}/teachers [delete]
func (h *SubjectHandler) RemoveTeachers(c *gin.Context) {
	var req models.SubjectTeachersRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.service.RemoveTeachers(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
