package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/scolendar-api/internal/middleware"
	"github.com/noah-isme/scolendar-api/internal/models"
	appErrors "github.com/noah-isme/scolendar-api/pkg/errors"
	"github.com/noah-isme/scolendar-api/pkg/response"
)

func actorFromContext(c *gin.Context) models.Actor {
	claims, ok := middleware.Claims(c)
	if !ok {
		return models.Actor{}
	}
	return models.ActorFromClaims(claims)
}

// bindJSON decodes the body and answers 400 on failure.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func pageQuery(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, size
}

// occupancyFilter reads start, end (unix seconds) and occupancies_per_day.
func occupancyFilter(c *gin.Context, resource models.OccupancyResource, resourceID string) (models.OccupancyFilter, error) {
	filter := models.OccupancyFilter{Resource: resource, ResourceID: resourceID}
	var err error
	if filter.Start, err = unixQuery(c, "start"); err != nil {
		return filter, err
	}
	if filter.End, err = unixQuery(c, "end"); err != nil {
		return filter, err
	}
	if raw := strings.TrimSpace(c.Query("occupancies_per_day")); raw != "" {
		perDay, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return filter, appErrors.Wrap(convErr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "occupancies_per_day must be an integer")
		}
		filter.PerDayCap = perDay
	}
	return filter, nil
}

func unixQuery(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, key+" must be a unix timestamp")
	}
	t := time.Unix(secs, 0).UTC()
	return &t, nil
}
