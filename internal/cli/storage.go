package cli

import (
	"github.com/grantcarthew/cdpctl/internal/domain/storage"
	"github.com/spf13/cobra"
)

func newStorageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Storage domain commands",
	}

	var types []string
	clearCmd := &cobra.Command{
		Use:   "clear <origin>",
		Short: "Clear stored data for an origin",
		Long: `Clears browser storage for one origin.

Without --types every storage type is cleared. Types are the protocol names:
appcache, cookies, file_systems, indexeddb, local_storage, shader_cache, websql,
service_workers, cache_storage.

Examples:
  cdpctl storage clear https://example.com
  cdpctl storage clear https://example.com --types cookies,local_storage`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.connect(cmd.Context())
			if err != nil {
				return a.fail(cmd, err)
			}
			defer client.Close()

			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			if err := storage.New(client).ClearDataForOrigin(ctx, args[0], types...); err != nil {
				return a.fail(cmd, err)
			}
			return a.outputSuccess(cmd)
		},
	}
	clearCmd.Flags().StringSliceVar(&types, "types", nil, "Comma-separated storage types (default all)")

	cmd.AddCommand(clearCmd)
	return cmd
}
