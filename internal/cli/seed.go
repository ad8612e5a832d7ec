package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/formulagraph/internal/config"
	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
	"github.com/matzehuels/formulagraph/pkg/graph"
)

// newSeedCmd creates the seed command for importing a JSON dataset into a
// store backend.
func newSeedCmd() *cobra.Command {
	var (
		configPath string
		skipDupes  bool
	)

	cmd := &cobra.Command{
		Use:   "seed [dataset.json]",
		Short: "Import a JSON dataset into the configured store",
		Long: `Import a JSON dataset into the configured store.

Domains are created first; formulas follow with their domain tags mapped
onto the freshly created domain IDs. Edges are never imported since the
store derives them from shared domains.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), args[0], cfg, skipDupes)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file")
	cmd.Flags().BoolVar(&skipDupes, "skip-duplicates", false, "skip domains that already exist instead of failing")

	return cmd
}

// runSeed loads the dataset file and replays it into the store.
func runSeed(ctx context.Context, path string, cfg config.Config, skipDupes bool) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	ds, err := graph.ReadDatasetFile(path)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read dataset %s", path)
	}

	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	// Old domain ID -> new domain ID, so formula tags survive the import.
	idMap := make(map[string]string, len(ds.Domains))
	created, skipped := 0, 0
	for _, d := range ds.Domains {
		nd, err := st.CreateDomain(ctx, d.Name)
		if err != nil {
			if skipDupes && apperrors.Is(err, apperrors.ErrCodeDuplicateName) {
				logger.Debug("skipping existing domain", "name", d.Name)
				skipped++
				continue
			}
			return err
		}
		idMap[d.ID] = nd.ID
		created++
	}

	imported := 0
	for _, f := range ds.Formulas {
		ids := make([]string, 0, len(f.DomainIDs))
		for _, old := range f.DomainIDs {
			if mapped, ok := idMap[old]; ok {
				ids = append(ids, mapped)
			}
		}
		if _, err := st.CreateFormula(ctx, f.Principle, f.Reference, ids); err != nil {
			return err
		}
		imported++
	}

	prog.done(fmt.Sprintf("Seeded %d formulas", imported))
	printSuccess("Imported %d domains and %d formulas into %s store", created, imported, cfg.Store.Backend)
	if skipped > 0 {
		printDetail("%d domains already existed", skipped)
	}
	return nil
}
