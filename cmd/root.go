package cmd

import (
	"fmt"
	"os"

	"caketime/configs"
	"caketime/pkg/resp"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Version = "dev"

func Execute() {
	rootCmd := &cobra.Command{
		Use:     "caketime",
		Short:   "TheCakeTime storefront API",
		Version: Version,
		RunE:    runServe,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type deps struct {
	cfg    *configs.Config
	logger *zap.Logger
	db     *gorm.DB
}

// bootstrap loads config, installs the global logger and opens the database.
func bootstrap() (*deps, error) {
	cfg, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := configs.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	if !cfg.EnvFileLoaded {
		logger.Info("no .env file found, using environment variables")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	resp.RegisterJSONFieldNames()

	db, err := configs.ConnectionDB(cfg)
	if err != nil {
		return nil, err
	}
	return &deps{cfg: cfg, logger: logger, db: db}, nil
}

func (rt *deps) close() {
	if sqlDB, err := rt.db.DB(); err == nil {
		sqlDB.Close()
	}
	_ = rt.logger.Sync()
}
