package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newStatusCommand(newClient func() *apiClient) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show render job status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			out := cmd.OutOrStdout()
			if watch {
				return watchJob(cmd.Context(), out, client, args[0])
			}

			job, err := client.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printJob(out, job)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll until the job reaches a terminal state")
	return cmd
}

func newJobsCommand(newClient func() *apiClient) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recent render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := newClient().Jobs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No render jobs")
				return nil
			}
			fmt.Fprintln(out, renderJobsTable(jobs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to list")
	return cmd
}

func newCancelCommand(newClient func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a pending or running render job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().Cancel(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Canceled job %s\n", args[0])
			return nil
		},
	}
}

func newRetryCommand(newClient func() *apiClient) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <job-id>",
		Short: "Clone a failed job into a new pending job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := newClient().Retry(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retrying as new job %s (%s)\n", job.JobID, job.Status)
			return nil
		},
	}
}

func newDownloadCommand(newClient func() *apiClient) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <job-id>",
		Short: "Download the rendered output of a completed job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, size, err := newClient().Download(cmd.Context(), args[0], output)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", name, humanize.Bytes(uint64(size)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default: server-provided name)")
	return cmd
}

func printJob(out io.Writer, job *jobInfo) {
	fmt.Fprintf(out, "Job:      %s\n", job.JobID)
	fmt.Fprintf(out, "Clip:     %s\n", job.ClipID)
	fmt.Fprintf(out, "Status:   %s\n", job.Status)
	fmt.Fprintf(out, "Progress: %s%%\n", job.Progress)
	if job.CreatedAt != "" {
		fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt)
	}
	if job.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", job.Error)
	}
	if len(job.Result) > 0 {
		keys := make([]string, 0, len(job.Result))
		for k := range job.Result {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(out, "Result:")
		for _, k := range keys {
			fmt.Fprintf(out, "  %s: %v\n", k, job.Result[k])
		}
	}
}

// watchJob polls status every two seconds, printing a line whenever the
// job moves, until the job reaches a terminal state.
func watchJob(ctx context.Context, out io.Writer, client *apiClient, jobID string) error {
	lastLine := ""
	for {
		job, err := client.Status(ctx, jobID)
		if err != nil {
			return err
		}

		line := fmt.Sprintf("%s  progress %s%%", job.Status, job.Progress)
		if line != lastLine {
			lastLine = line
			fmt.Fprintln(out, line)
		}

		switch job.Status {
		case "completed":
			printJob(out, job)
			return nil
		case "failed":
			if job.Error != "" {
				return fmt.Errorf("job failed: %s", job.Error)
			}
			return errors.New("job failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}
