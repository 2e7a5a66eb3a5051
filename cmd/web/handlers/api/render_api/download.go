package render_api

import (
	"errors"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"

	"thirdcoast.systems/clipforge/cmd/web/handlers/common"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/internal/render"
	"thirdcoast.systems/clipforge/pkg/utils/filename"
)

func HandleDownload(svc *render.Service) echo.HandlerFunc {
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
		if job.Status != db.JobStatusCompleted {
			return common.ErrConflict("render not completed")
		}

		result := job.Data.Result()
		outputPath, _ := result["output_path"].(string)
		if outputPath == "" {
			slog.Error("completed render without output path", "job_id", jobUUID)
			return common.ErrInternal("render result missing output")
		}
		if _, err := os.Stat(outputPath); err != nil {
			slog.Warn("render output missing on disk", "job_id", jobUUID, "output", outputPath)
			return echo.NewHTTPError(410, "render output no longer available")
		}

		ext := filepath.Ext(outputPath)
		if ct := mime.TypeByExtension(ext); ct != "" {
			c.Response().Header().Set(echo.HeaderContentType, ct)
		}

		namePart := filename.Sanitize(job.ClipID, 80)
		if namePart == "" {
			namePart = "render"
		}
		downloadName := namePart + "-" + db.UUIDString(job.ID) + ext
		return c.Attachment(outputPath, downloadName)
	}
}
