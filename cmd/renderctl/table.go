package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderJobsTable(jobs []jobInfo) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Job", "Clip", "Status", "Progress", "Created"})

	for _, job := range jobs {
		tw.AppendRow(table.Row{job.JobID, job.ClipID, job.Status, job.Progress + "%", job.CreatedAt})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}
