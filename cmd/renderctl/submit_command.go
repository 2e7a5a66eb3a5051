package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"
)

func newSubmitCommand(newClient func() *apiClient) *cobra.Command {
	var (
		clipID          string
		presetName      string
		sourcePath      string
		voiceOverPath   string
		subtitlePath    string
		uploadVideo     string
		uploadAudio     string
		uploadSubtitles string
		setFields       []string
		watch           bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a render job",
		Example: `  renderctl submit --clip-id ep01-intro --preset tiktok --source /media/ep01.mkv
  renderctl submit --clip-id ep01-intro --preset reels --upload-video clip.mp4 \
      --set enable_sharpen=true --set sharpen_amount=1.2 --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := url.Values{}
			form.Set("clip_id", clipID)
			form.Set("preset_name", presetName)
			if sourcePath != "" {
				form.Set("source_path", sourcePath)
			}
			if voiceOverPath != "" {
				form.Set("voice_over_path", voiceOverPath)
			}
			if subtitlePath != "" {
				form.Set("subtitle_path", subtitlePath)
			}
			for _, kv := range setFields {
				name, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --set %q, want name=value", kv)
				}
				form.Set(strings.TrimSpace(name), value)
			}

			files := map[string]string{}
			if uploadVideo != "" {
				files["video"] = uploadVideo
			}
			if uploadAudio != "" {
				files["audio"] = uploadAudio
			}
			if uploadSubtitles != "" {
				files["subtitles"] = uploadSubtitles
			}

			client := newClient()
			accepted, err := client.Submit(cmd.Context(), form, files)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Submitted job %s (%s)\n", accepted.JobID, accepted.Status)
			if !watch {
				return nil
			}
			return watchJob(cmd.Context(), out, client, accepted.JobID)
		},
	}

	cmd.Flags().StringVar(&clipID, "clip-id", "", "Clip identifier (required)")
	cmd.Flags().StringVar(&presetName, "preset", "", "Platform preset name (required)")
	cmd.Flags().StringVar(&sourcePath, "source", "", "Source video path on the server")
	cmd.Flags().StringVar(&voiceOverPath, "voice-over", "", "Voice-over audio path on the server")
	cmd.Flags().StringVar(&subtitlePath, "subtitles", "", "Subtitle file path on the server")
	cmd.Flags().StringVar(&uploadVideo, "upload-video", "", "Local video file to upload as the source")
	cmd.Flags().StringVar(&uploadAudio, "upload-audio", "", "Local audio file to upload as the voice-over")
	cmd.Flags().StringVar(&uploadSubtitles, "upload-subtitles", "", "Local subtitle file to upload")
	cmd.Flags().StringArrayVar(&setFields, "set", nil, "Extra form field as name=value (repeatable)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Watch job progress until it finishes")
	_ = cmd.MarkFlagRequired("clip-id")
	_ = cmd.MarkFlagRequired("preset")

	return cmd
}
