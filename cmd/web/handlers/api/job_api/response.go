// Package job_api provides render job API handlers.
package job_api

import (
	"strconv"

	"thirdcoast.systems/clipforge/internal/db"
)

// jobResponse renders the polling payload for one job. Progress is a
// string-encoded integer for compatibility with older clients.
func jobResponse(job *db.RenderJob) map[string]any {
	resp := map[string]any{
		"job_id":   db.UUIDString(job.ID),
		"clip_id":  job.ClipID,
		"status":   job.Status,
		"progress": strconv.Itoa(int(job.Progress)),
	}
	if at := db.TimeString(job.CreatedAt); at != "" {
		resp["created_at"] = at
	}
	if at := db.TimeString(job.FinishedAt); at != "" {
		resp["finished_at"] = at
	}
	if result := job.Data.Result(); result != nil {
		resp["result"] = result
	}
	if job.Error != nil && *job.Error != "" {
		resp["error"] = *job.Error
	}
	return resp
}
