package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// parseSinceParam reads the optional "since" query parameter. Absent means 0.
func parseSinceParam(c echo.Context) (int64, error) {
	raw := c.QueryParam("since")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
