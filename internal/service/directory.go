package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/scolendar-api/internal/models"
	"github.com/noah-isme/scolendar-api/internal/repository"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
)

const defaultPageSize = 20

func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = defaultPageSize
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

// batchError maps a failed item of an all-or-nothing batch to its API error.
func batchError(err error, resource, internal string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	var item *repository.ItemError
	if errors.As(err, &item) {
		switch {
		case errors.Is(item.Err, sql.ErrNoRows):
			return appErrors.Clone(appErrors.ErrInvalidID, fmt.Sprintf("%s %s not found", resource, item.ID))
		case errors.Is(item.Err, repository.ErrReferenced):
			return appErrors.Clone(appErrors.ErrClassroomUsed, fmt.Sprintf("classroom %s is used by an occupancy", item.ID))
		}
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrInvalidID, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
