package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsPopulateSchedulingTable(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "Europe/Paris", cfg.Scheduling.TimeZone)
	assert.Equal(t, []string{"cm", "td", "tp", "exam", "conference", "other"}, cfg.Scheduling.OccupancyTypes)
	assert.Equal(t, []string{"td", "tp"}, cfg.Scheduling.GroupOccupancyTypes)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Listing.CacheTTL)
	assert.False(t, cfg.Listing.CacheEnabled)
}

func TestOverridesAreParsed(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("OCCUPANCY_TYPES", " cm , td ,, tp ")
	v.Set("LISTING_CACHE_TTL", "not-a-duration")
	v.Set("REQUEST_TIMEOUT", "3s")
	v.Set("JWT_AUDIENCE", "web,mobile")

	cfg := fromViper(v)

	assert.Equal(t, []string{"cm", "td", "tp"}, cfg.Scheduling.OccupancyTypes)
	assert.Equal(t, 2*time.Minute, cfg.Listing.CacheTTL)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"web", "mobile"}, cfg.JWT.Audience)
}
