package job_api

import (
	"errors"
	"log/slog"

	"github.com/labstack/echo/v4"

	"thirdcoast.systems/clipforge/cmd/web/handlers/common"
	"thirdcoast.systems/clipforge/internal/render"
)

func HandleRetry(svc *render.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobUUID, err := common.RequireUUIDParam(c, "id")
		if err != nil {
			return err
		}

		job, err := svc.Retry(c.Request().Context(), jobUUID, common.ProfileID(c))
		if err != nil {
			switch {
			case errors.Is(err, render.ErrJobNotFound):
				return common.ErrNotFound("job not found")
			case errors.Is(err, render.ErrJobNotRetryable):
				return common.ErrConflict("only failed jobs can be retried")
			case errors.Is(err, render.ErrClipBusy):
				return common.ErrConflict("clip already has an active render")
			case errors.Is(err, render.ErrSourceNotFound):
				return common.ErrBadRequest(err.Error())
			default:
				slog.Error("failed to retry render job", "job_id", jobUUID, "error", err)
				return common.ErrInternal("failed to retry job")
			}
		}

		return c.JSON(200, jobResponse(job))
	}
}
