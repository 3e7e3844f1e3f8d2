package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/pkg/jobs"
)

type auditRepoStub struct {
	logs []models.AuditLog
	err  error
}

func (s *auditRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if s.err != nil {
		return s.err
	}
	s.logs = append(s.logs, *log)
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type auditDropCounter struct {
	drops int
}

func (c *auditDropCounter) RecordAuditDrop() { c.drops++ }

func TestAuditServiceRecordThroughQueue(t *testing.T) {
	repo := &auditRepoStub{}
	queue := &queueStub{}
	svc := NewAuditService(repo, nil, nil)
	svc.AttachQueue(queue)

	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionOccupancyCreate, Resource: "occupancy"})
	require.Len(t, queue.jobs, 1)
	assert.Empty(t, repo.logs)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))
	require.Len(t, repo.logs, 1)
	assert.Equal(t, models.AuditActionOccupancyCreate, repo.logs[0].Action)
	assert.Equal(t, queue.jobs[0].ID, repo.logs[0].ID)
}

func TestAuditServiceCountsDrops(t *testing.T) {
	counter := &auditDropCounter{}
	svc := NewAuditService(&auditRepoStub{}, counter, nil)
	svc.AttachQueue(&queueStub{err: jobs.ErrQueueFull})

	svc.Record(context.Background(), models.AuditLog{Action: models.AuditActionOccupancyDelete})
	assert.Equal(t, 1, counter.drops)
}

func TestAuditServiceHandleReturnsWriteErrors(t *testing.T) {
	svc := NewAuditService(&auditRepoStub{err: errors.New("db down")}, nil, nil)
	err := svc.Handle(context.Background(), jobs.Job{ID: "1", Payload: models.AuditLog{ID: "1"}})
	assert.Error(t, err)
}

func TestAuditServiceInlineWithoutQueue(t *testing.T) {
	repo := &auditRepoStub{}
	NewAuditService(repo, nil, nil).Record(context.Background(), models.AuditLog{Action: models.AuditActionClassroomDelete})
	assert.Len(t, repo.logs, 1)
}
