package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
)

func pathID(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param(name)))
	if err != nil || id == 0 {
		return 0, ErrInvalidID.WithField(name, "must be a numeric id")
	}
	return id, nil
}

func queryID(c *gin.Context, name string) (*snowflake.ID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil, ErrInvalidRequest.WithField(name, "must be a numeric id")
	}
	return &id, nil
}

func requiredQueryID(c *gin.Context, name string) (snowflake.ID, error) {
	id, err := queryID(c, name)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, ErrInvalidRequest.WithField(name, "required")
	}
	return *id, nil
}

func parseWeek(name, raw string) (calendar.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return calendar.Date{}, ErrInvalidRequest.WithField(name, "required")
	}
	d, err := calendar.Parse(raw)
	if err != nil {
		return calendar.Date{}, ErrInvalidRequest.WithField(name, "must be YYYY-MM-DD")
	}
	return d, nil
}

func queryWeek(c *gin.Context) (calendar.Date, error) {
	return parseWeek("week_start", c.Query("week_start"))
}
