package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/service"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
	"github.com/noah-isme/scolendar-api/pkg/response"
)

type occupancyCommands interface {
	Create(ctx context.Context, actor models.Actor, req models.CreateOccupancyRequest) (*models.Occupancy, error)
	Update(ctx context.Context, actor models.Actor, id string, req models.UpdateOccupancyRequest) (*models.Occupancy, error)
	Delete(ctx context.Context, actor models.Actor, ids []string) error
	Check(ctx context.Context, actor models.Actor, req models.CreateOccupancyRequest) (*models.CheckResult, error)
	CheckBatch(ctx context.Context, actor models.Actor, req models.CheckBatchRequest) ([]models.CheckResult, error)
}

type occupancyQueries interface {
	ListAs(ctx context.Context, actor models.Actor, filter models.OccupancyFilter) ([]models.DayBucket, error)
}

type occupancyExporter interface {
	Export(ctx context.Context, filter models.OccupancyFilter, format string) (*service.ExportResult, error)
}

// OccupancyHandler handles occupancy endpoints.
type OccupancyHandler struct {
	commands occupancyCommands
	queries  occupancyQueries
	exporter occupancyExporter
}

// NewOccupancyHandler constructs an occupancy handler.
func NewOccupancyHandler(commands occupancyCommands, queries occupancyQueries, exporter occupancyExporter) *OccupancyHandler {
	return &OccupancyHandler{commands: commands, queries: queries, exporter: exporter}
}

// List godoc
// @Summary List occupancies grouped by day
// @Tags Occupancies
// @Produce json
// @Param start query int false "Lower bound on start (unix seconds)"
// @Param end query int false "Upper bound on end (unix seconds)"
// @Param occupancies_per_day query int false "Cap per day, 0 for unlimited"
// @Success 200 {object} response.Envelope
// @Router /occupancies [get]
func (h *OccupancyHandler) List(c *gin.Context) {
	h.listFor(c, models.OccupancyResourceAll, "")
}

// ListFor returns a handler listing the occupancies of the resource named by :id.
func (h *OccupancyHandler) ListFor(resource models.OccupancyResource) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.listFor(c, resource, c.Param("id"))
	}
}

func (h *OccupancyHandler) listFor(c *gin.Context, resource models.OccupancyResource, id string) {
	filter, err := occupancyFilter(c, resource, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	days, err := h.queries.ListAs(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, nil)
}

// Export godoc
// @Summary Export occupancies as CSV or PDF
// @Tags Occupancies
// @Produce octet-stream
// @Param format query string false "csv or pdf"
// @Param start query int false "Lower bound on start (unix seconds)"
// @Param end query int false "Upper bound on end (unix seconds)"
// @Success 200 {file} file
// @Router /occupancies/export [get]
func (h *OccupancyHandler) Export(c *gin.Context) {
	filter, err := occupancyFilter(c, models.OccupancyResourceAll, "")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), filter, c.DefaultQuery("format", service.ExportFormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, result.Filename, result.ContentType, result.Body)
}

// Create godoc
// @Summary Book a standalone occupancy
// @Tags Occupancies
// @Accept json
// @Produce json
// @Param payload body models.CreateOccupancyRequest true "Occupancy payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /occupancies [post]
func (h *OccupancyHandler) Create(c *gin.Context) {
	var req models.CreateOccupancyRequest
	if !bindJSON(c, &req) {
		return
	}
	h.create(c, req)
}

// CreateForSubject godoc
// @Summary Book a whole-class occupancy of a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body models.CreateOccupancyRequest true "Occupancy payload"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/occupancies [post]
func (h *OccupancyHandler) CreateForSubject(c *gin.Context) {
	var req models.CreateOccupancyRequest
	if !bindJSON(c, &req) {
		return
	}
	subjectID := c.Param("id")
	req.SubjectID = &subjectID
	req.GroupNumber = 0
	h.create(c, req)
}

// CreateForGroup godoc
// @Summary Book a group occupancy of a subject
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param group path int true "Group number (1..n)"
// @Param payload body models.CreateOccupancyRequest true "Occupancy payload"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/groups/{group}/occupancies [post]
func (h *OccupancyHandler) CreateForGroup(c *gin.Context) {
	group, err := strconv.Atoi(c.Param("group"))
	if err != nil || group < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "group must be a positive integer"))
		return
	}
	var req models.CreateOccupancyRequest
	if !bindJSON(c, &req) {
		return
	}
	subjectID := c.Param("id")
	req.SubjectID = &subjectID
	req.GroupNumber = group
	h.create(c, req)
}

func (h *OccupancyHandler) create(c *gin.Context, req models.CreateOccupancyRequest) {
	occupancy, err := h.commands.Create(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, occupancy)
}

// Check godoc
// @Summary Preview a booking without saving it
// @Tags Occupancies
// @Accept json
// @Produce json
// @Param payload body models.CreateOccupancyRequest true "Occupancy payload"
// @Success 200 {object} response.Envelope
// @Router /occupancies/check [post]
func (h *OccupancyHandler) Check(c *gin.Context) {
	var req models.CreateOccupancyRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.commands.Check(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CheckBatch godoc
// @Summary Preview several bookings against storage and each other
// @Tags Occupancies
// @Accept json
// @Produce json
// @Param payload body models.CheckBatchRequest true "Drafts"
// @Success 200 {object} response.Envelope
// @Router /occupancies/check/batch [post]
func (h *OccupancyHandler) CheckBatch(c *gin.Context) {
	var req models.CheckBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	results, err := h.commands.CheckBatch(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// Update godoc
// @Summary Move, resize or rename an occupancy
// @Tags Occupancies
// @Accept json
// @Produce json
// @Param id path string true "Occupancy ID"
// @Param payload body models.UpdateOccupancyRequest true "Patch"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /occupancies/{id} [put]
func (h *OccupancyHandler) Update(c *gin.Context) {
	var req models.UpdateOccupancyRequest
	if !bindJSON(c, &req) {
		return
	}
	occupancy, err := h.commands.Update(c.Request.Context(), actorFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occupancy, nil)
}

// Delete godoc
// @Summary Delete an occupancy
// @Tags Occupancies
// @Param id path string true "Occupancy ID"
// @Success 204
// @Router /occupancies/{id} [delete]
func (h *OccupancyHandler) Delete(c *gin.Context) {
	if err := h.commands.Delete(c.Request.Context(), actorFromContext(c), []string{c.Param("id")}); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteBatch godoc
// @Summary Delete several occupancies, all or none
// @Tags Occupancies
// @Accept json
// @Param payload body models.BatchIDsRequest true "Occupancy IDs"
// @Success 204
// @Router /occupancies [delete]
func (h *OccupancyHandler) DeleteBatch(c *gin.Context) {
	var req models.BatchIDsRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.commands.Delete(c.Request.Context(), actorFromContext(c), req.IDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
