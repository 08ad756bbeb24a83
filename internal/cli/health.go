package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mcoot/bankerscore/internal/factory"
	"github.com/mcoot/bankerscore/internal/remote/httpstore"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the docstore server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := settings.Client.RemoteURL
			if url == "" {
				return factory.ErrSyncDisabled
			}

			client := httpstore.NewClient(url, settings.Client.RemoteTimeout)
			result := HealthResult{Status: "ok", URL: url}
			if err := client.Health(cmd.Context()); err != nil {
				result.Status = "unreachable"
				out.Print(result)
				return errors.Join(errors.New("docstore health check failed"), err)
			}

			out.Print(result)
			return nil
		},
	}
}
