package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// apiClient is a thin client for the clipforge web API.
type apiClient struct {
	baseURL   string
	profileID string
	http      *http.Client
}

func newAPIClient(baseURL, profileID string) *apiClient {
	return &apiClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		profileID: profileID,
		// No client timeout; submit uploads and result downloads can be
		// large. Cancellation comes from the command context.
		http: &http.Client{},
	}
}

type jobInfo struct {
	JobID     string         `json:"job_id"`
	ClipID    string         `json:"clip_id"`
	Status    string         `json:"status"`
	Progress  string         `json:"progress"`
	CreatedAt string         `json:"created_at"`
	Result    map[string]any `json:"result"`
	Error     string         `json:"error"`
}

type submitAccepted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (c *apiClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.profileID != "" {
		req.Header.Set("X-Profile-ID", c.profileID)
	}
	return req, nil
}

// apiError turns a non-2xx response into an error, preferring the JSON
// message the server attaches over a raw body dump.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 16*1024))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return fmt.Errorf("%s (HTTP %d)", payload.Message, resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

func (c *apiClient) doJSON(ctx context.Context, method, path string, out any) error {
	req, err := c.newRequest(ctx, method, path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Submit posts a render request. files maps form field name to a local
// path uploaded alongside the plain fields.
func (c *apiClient) Submit(ctx context.Context, fields url.Values, files map[string]string) (*submitAccepted, error) {
	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
	}

	// Stream the body so large uploads never sit in memory.
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeSubmitForm(mw, fields, files)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/api/render", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apiError(resp)
	}

	var out submitAccepted
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func writeSubmitForm(mw *multipart.Writer, fields url.Values, files map[string]string) error {
	for name, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(name, v); err != nil {
				return err
			}
		}
	}
	for field, path := range files {
		if err := attachFile(mw, field, path); err != nil {
			return err
		}
	}
	return nil
}

func attachFile(mw *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := mw.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *apiClient) Status(ctx context.Context, jobID string) (*jobInfo, error) {
	var out jobInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(jobID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) Jobs(ctx context.Context, limit int) ([]jobInfo, error) {
	path := "/api/jobs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Jobs []jobInfo `json:"jobs"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

func (c *apiClient) Cancel(ctx context.Context, jobID string) error {
	var out struct {
		Status string `json:"status"`
	}
	return c.doJSON(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(jobID)+"/cancel", &out)
}

func (c *apiClient) Retry(ctx context.Context, jobID string) (*jobInfo, error) {
	var out jobInfo
	if err := c.doJSON(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(jobID)+"/retry", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download streams a completed job's output to dest. An empty dest takes
// the server-provided attachment name, falling back to <job-id>.mp4.
func (c *apiClient) Download(ctx context.Context, jobID, dest string) (string, int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(jobID)+"/download", nil)
	if err != nil {
		return "", 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", 0, apiError(resp)
	}

	name := dest
	if name == "" {
		name = attachmentFilename(resp.Header.Get("Content-Disposition"))
	}
	if name == "" {
		name = jobID + ".mp4"
	}

	f, err := os.Create(name)
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", 0, err
	}
	return name, n, nil
}

func attachmentFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	if name == "" {
		return ""
	}
	// Base strips any path the server (or a proxy) smuggled in.
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
