package cli

import (
	"fmt"
	"os"

	"geoportal-service/internal/config"
	"geoportal-service/internal/domain"
	pgstore "geoportal-service/internal/infra/postgres"
	"geoportal-service/internal/infra/seed"
	"geoportal-service/internal/logging"
	"geoportal-service/internal/questionnaire"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd replaces the stored catalog with the bundled seed content, or
// with a YAML file given by --file.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write catalog content to postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg)
			if err != nil {
				return err
			}
			defer logger.Sync()

			catalog, err := readCatalog(file)
			if err != nil {
				return err
			}
			if _, err := questionnaire.NewCatalog(catalog.Questionnaire.Topics, catalog.Questionnaire.Questions); err != nil {
				return err
			}

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := migrateDB(cmd.Context(), db, logger); err != nil {
				return err
			}
			written, err := pgstore.NewCatalogWriter(db).WriteCatalog(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			logger.Info("catalog written", zap.Int("documents", written))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML catalog to load instead of the bundled seed")
	return cmd
}

func readCatalog(path string) (domain.Catalog, error) {
	if path == "" {
		return seed.Catalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return seed.Decode(data)
}
