package job_api

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	"thirdcoast.systems/clipforge/cmd/web/handlers/common"
	"thirdcoast.systems/clipforge/internal/render"
)

func HandleCancel(svc *render.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		err = svc.Cancel(c.Request().Context(), jobUUID, common.ProfileID(c))
		if err != nil {
			switch {
			case errors.Is(err, render.ErrJobNotFound):
				return common.ErrNotFound("job not found")
			case errors.Is(err, render.ErrJobFinished):
				return common.ErrConflict("job already finished")
			default:
				slog.Error("failed to cancel render job", "job_id", jobUUID, "error", err)
				return common.ErrInternal("failed to cancel job")
			}
		}

		return c.JSON(200, map[string]any{"status": "canceled"})
	}
}
