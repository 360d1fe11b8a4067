package cmd

import (
	"caketime/configs"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			if err := configs.SetupDatabase(rt.db); err != nil {
				return err
			}
			rt.logger.Info("schema migrated")
			return nil
		},
	}
}
