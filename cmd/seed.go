package cmd

import (
	"caketime/configs"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func seedCmd() *cobra.Command {
	var catalog string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the admin account and, optionally, the product catalog",
		Long: `Seed the first admin from ADMIN_EMAIL/ADMIN_PASSWORD and load products
from a YAML catalog. Products whose name already exists are skipped.

Examples:
  caketime seed
  caketime seed --catalog data/catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap()
			if err != nil {
				return err
			}
			defer rt.close()

			if err := configs.SetupDatabase(rt.db); err != nil {
				return err
			}
			if err := configs.SeedAdmin(rt.db, rt.cfg, rt.logger); err != nil {
				return err
			}
			if catalog == "" {
				return nil
			}
			n, err := configs.SeedCatalog(rt.db, catalog, rt.logger)
			if err != nil {
				return err
			}
			rt.logger.Info("catalog seeded", zap.String("file", catalog), zap.Int("created", n))
			return nil
		},
	}
	cmd.Flags().StringVarP(&catalog, "catalog", "c", "", "YAML product catalog to load")
	return cmd
}
