package job_api

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	"thirdcoast.systems/clipforge/cmd/web/handlers/common"
	"thirdcoast.systems/clipforge/internal/render"
)

func HandleStatus(svc *render.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		job, err := svc.Status(c.Request().Context(), jobUUID, common.ProfileID(c))
		if err != nil {
			if errors.Is(err, render.ErrJobNotFound) {
				return common.ErrNotFound("job not found")
			}
			slog.Error("failed to load render job", "job_id", jobUUID, "error", err)
			return common.ErrInternal("failed to load job")
		}

		return c.JSON(200, jobResponse(job))
	}
}
