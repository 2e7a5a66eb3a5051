package job_api

import (
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"

	"thirdcoast.systems/clipforge/cmd/web/handlers/common"
	"thirdcoast.systems/clipforge/internal/render"
)

func HandleIndex(svc *render.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit := 0
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return common.ErrBadRequest("invalid limit")
			}
			limit = n
		}

		jobs, err := svc.Jobs(c.Request().Context(), common.ProfileID(c), int32(limit))
		if err != nil {
			slog.Error("failed to list render jobs", "error", err)
			return common.ErrInternal("failed to list jobs")
		}

		resp := make([]map[string]any, 0, len(jobs))
		for _, job := range jobs {
			resp = append(resp, jobResponse(job))
		}
		return c.JSON(200, map[string]any{"jobs": resp})
	}
}
