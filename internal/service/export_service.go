package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/pkg/export"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var exportHeaders = []string{"date", "start", "end", "name", "type", "classroom", "subject", "class", "group", "teacher"}

type occupancyListing interface {
	List(ctx context.Context, filter models.OccupancyFilter) ([]models.DayBucket, error)
	Location() *time.Location
}

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportResult is a rendered calendar ready to be streamed.
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders occupancy listings as CSV or PDF.
type ExportService struct {
	listing   occupancyListing
	renderers map[string]Renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Missing renderers fall back to the defaults.
func NewExportService(listing occupancyListing, csv, pdf Renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		listing:   listing,
		renderers: map[string]Renderer{ExportFormatCSV: csv, ExportFormatPDF: pdf},
		logger:    logger,
	}
}

// Export renders the occupancies matching filter. The per-day cap is ignored.
func (s *ExportService) Export(ctx context.Context, filter models.OccupancyFilter, format string) (*ExportResult, error) {
	renderer, ok := s.renderers[strings.ToLower(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	filter.PerDayCap = 0
	days, err := s.listing.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	title := exportTitle(filter)
	body, err := renderer.Render(s.dataset(days), title)
	if err != nil {
		s.logger.Error("failed to render export", zap.Error(err), zap.String("format", format))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("%s.%s", sanitizeFilename(title), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

func (s *ExportService) dataset(days []models.DayBucket) export.Dataset {
	loc := s.listing.Location()
	data := export.Dataset{Headers: exportHeaders}
	for _, day := range days {
		for _, o := range day.Occupancies {
			data.Rows = append(data.Rows, map[string]string{
				"date":      day.Date,
				"start":     time.Unix(o.Start, 0).In(loc).Format("15:04"),
				"end":       time.Unix(o.End, 0).In(loc).Format("15:04"),
				"name":      o.Name,
				"type":      string(o.OccupancyType),
				"classroom": o.ClassroomName,
				"subject":   o.SubjectName,
				"class":     o.ClassName,
				"group":     o.GroupName,
				"teacher":   o.TeacherName,
			})
		}
	}
	return data
}

func exportTitle(filter models.OccupancyFilter) string {
	if filter.Resource == "" || filter.Resource == models.OccupancyResourceAll {
		return "occupancies"
	}
	return fmt.Sprintf("occupancies %s %s", filter.Resource, filter.ResourceID)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "export"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
