package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/pkg/jobs"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type auditQueue interface {
	Enqueue(job jobs.Job) error
}

type auditMetrics interface {
	RecordAuditDrop()
}

// AuditService records audit trail entries off the request path.
type AuditService struct {
	repo    auditRepository
	queue   auditQueue
	metrics auditMetrics
	logger  *zap.Logger
}

// NewAuditService constructs an AuditService. Without a queue, records are written inline.
func NewAuditService(repo auditRepository, metrics auditMetrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, metrics: metrics, logger: logger}
}

// AttachQueue routes records through a background queue.
func (s *AuditService) AttachQueue(queue auditQueue) {
	s.queue = queue
}

// Record stores an audit entry. Failures are logged and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, entry models.AuditLog) {
	if s == nil || s.repo == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if s.queue == nil {
		if err := s.repo.CreateAuditLog(ctx, &entry); err != nil {
			s.logger.Warn("failed to write audit log", zap.String("action", entry.Action), zap.Error(err))
		}
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: entry.Action, Payload: entry}); err != nil {
		if s.metrics != nil {
			s.metrics.RecordAuditDrop()
		}
		s.logger.Warn("failed to queue audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

// Handle writes one queued audit entry.
func (s *AuditService) Handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(models.AuditLog)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.repo.CreateAuditLog(ctx, &entry); err != nil {
		return fmt.Errorf("write audit log %s: %w", entry.ID, err)
	}
	return nil
}
