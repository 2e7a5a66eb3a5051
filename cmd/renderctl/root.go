package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const defaultServerURL = "http://localhost:8080"

func newRootCommand() *cobra.Command {
	var serverFlag string
	var profileFlag string

	rootCmd := &cobra.Command{
		Use:           "renderctl",
		Short:         "Manage clipforge render jobs over the HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "",
		"Base URL of the clipforge web service (default $RENDERCTL_SERVER or "+defaultServerURL+")")
	rootCmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "",
		"Profile ID sent as X-Profile-ID")

	newClient := func() *apiClient {
		server := strings.TrimSpace(serverFlag)
		if server == "" {
			server = strings.TrimSpace(os.Getenv("RENDERCTL_SERVER"))
		}
		if server == "" {
			server = defaultServerURL
		}
		return newAPIClient(server, strings.TrimSpace(profileFlag))
	}

	rootCmd.AddCommand(newSubmitCommand(newClient))
	rootCmd.AddCommand(newStatusCommand(newClient))
	rootCmd.AddCommand(newJobsCommand(newClient))
	rootCmd.AddCommand(newCancelCommand(newClient))
	rootCmd.AddCommand(newRetryCommand(newClient))
	rootCmd.AddCommand(newDownloadCommand(newClient))

	return rootCmd
}
