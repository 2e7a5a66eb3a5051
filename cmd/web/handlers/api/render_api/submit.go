// Package render_api provides render submission and result download
// handlers.
package render_api

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"thirdcoast.systems/clipforge/cmd/web/handlers/common"
	"thirdcoast.systems/clipforge/internal/config"
	"thirdcoast.systems/clipforge/internal/db"
	"thirdcoast.systems/clipforge/internal/render"
	"thirdcoast.systems/clipforge/pkg/preset"
	"thirdcoast.systems/clipforge/pkg/utils/filename"
)

func HandleSubmit(svc *render.Service, conf config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		form, err := c.FormParams()
		if err != nil {
			return common.ErrBadRequest("malformed form body")
		}

		req := render.Request{
			ClipID:    strings.TrimSpace(c.FormValue("clip_id")),
			ProfileID: common.ProfileID(c),
			Preset:    strings.TrimSpace(c.FormValue("preset_name")),
		}

		req.Filters, err = parseVideoFilters(form)
		if err != nil {
			return err
		}
		req.Style, err = parseSubtitleStyle(form)
		if err != nil {
			return err
		}

		if err := resolveSources(c, conf, &req); err != nil {
			if req.UploadDir != "" {
				_ = os.RemoveAll(req.UploadDir)
			}
			return err
		}

		job, err := svc.Submit(c.Request().Context(), req)
		if err != nil {
			// A rejected request keeps nothing on disk.
			if req.UploadDir != "" {
				_ = os.RemoveAll(req.UploadDir)
			}
			var verrs validator.ValidationErrors
			switch {
			case errors.Is(err, render.ErrClipBusy):
				return common.ErrConflict("clip already has an active render")
			case errors.Is(err, preset.ErrUnknown),
				errors.Is(err, render.ErrSourceNotFound),
				errors.As(err, &verrs):
				return common.ErrBadRequest(err.Error())
			default:
				slog.Error("failed to submit render", "clip_id", req.ClipID, "error", err)
				return common.ErrInternal("failed to submit render")
			}
		}

		return c.JSON(200, map[string]any{
			"job_id": db.UUIDString(job.ID),
			"status": job.Status,
		})
	}
}

// resolveSources fills the request's input paths. Uploaded files win over
// path references; uploads land in a per-request directory under the work
// root so retries can reuse them.
func resolveSources(c echo.Context, conf config.Config, req *render.Request) error {
	uploadDir := filepath.Join(conf.WorkRoot, "uploads", uuid.NewString())

	fields := []struct {
		file     string
		form     string
		fallback string
		dest     *string
	}{
		{"video", "source_path", "source", &req.SourcePath},
		{"audio", "voice_over_path", "voiceover", &req.VoiceOverPath},
		{"subtitles", "subtitle_path", "subtitles", &req.SubtitlePath},
	}
	for _, f := range fields {
		if fh, err := c.FormFile(f.file); err == nil {
			path, err := saveUpload(uploadDir, fh, f.fallback)
			if err != nil {
				slog.Error("failed to store upload", "field", f.file, "error", err)
				return common.ErrInternal("failed to store upload")
			}
			*f.dest = path
			req.UploadDir = uploadDir
			continue
		}
		ref, err := resolveRef(conf.SourceRoot, strings.TrimSpace(c.FormValue(f.form)))
		if err != nil {
			return err
		}
		*f.dest = ref
	}
	return nil
}

// resolveRef turns a path reference into an absolute path. Relative
// references resolve under the source root and must stay there.
func resolveRef(sourceRoot, raw string) (string, error) {
	if raw == "" || filepath.IsAbs(raw) {
		return raw, nil
	}
	clean := filepath.Clean(raw)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", common.ErrBadRequest("path reference escapes the source root")
	}
	return filepath.Join(sourceRoot, clean), nil
}

// saveUpload streams a multipart file into dir via a temp file and rename,
// so a half-written upload is never picked up as an input.
func saveUpload(dir string, fh *multipart.FileHeader, fallback string) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := filename.Sanitize(fh.Filename, 0)
	if name == "" {
		name = fallback
	}
	finalPath := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}
