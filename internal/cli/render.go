package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/formulagraph/internal/config"
	apperrors "github.com/matzehuels/formulagraph/pkg/errors"
	"github.com/matzehuels/formulagraph/pkg/graph"
	"github.com/matzehuels/formulagraph/pkg/render/nodelink"
	"github.com/matzehuels/formulagraph/pkg/scene"
)

const (
	formatScene = "scene" // assembled scene JSON
	formatDOT   = "dot"   // Graphviz DOT source
	formatSVG   = "svg"   // rasterized via Graphviz neato
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path; empty writes to stdout
	format   string   // output format: scene, dot, svg
	domains  []string // domain IDs to keep; empty keeps all
	search   string   // case-insensitive substring filter on principles
	min      int      // minimum connection count for scene output
	cross    bool     // keep only edges whose endpoints live in different domains
	view     string   // scene view: formulas or replicas
	detailed bool     // include references in DOT labels
}

// newRenderCmd creates the render command for generating scene JSON, DOT,
// or SVG output from a dataset file or a configured store.
func newRenderCmd() *cobra.Command {
	var configPath string
	opts := renderOpts{
		format: formatScene,
		view:   "formulas",
	}

	cmd := &cobra.Command{
		Use:   "render [dataset.json]",
		Short: "Render the formula graph to scene JSON, DOT, or SVG",
		Long: `Render the formula graph to scene JSON, DOT, or SVG.

With a dataset file argument the graph is read from JSON; without one the
configured store is loaded instead. Scene JSON carries the positioned
markers, edges, and legend; dot and svg produce a Graphviz node-link
diagram.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case formatScene, formatDOT, formatSVG:
			default:
				return apperrors.New(apperrors.ErrCodeUnsupported, "unknown format %q (want scene, dot, or svg)", opts.format)
			}
			switch opts.view {
			case "formulas", "replicas":
			default:
				return apperrors.New(apperrors.ErrCodeInvalidFilter, "unknown view %q (want formulas or replicas)", opts.view)
			}

			var input string
			if len(args) == 1 {
				input = args[0]
			}
			return runRender(cmd.Context(), input, configPath, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: scene (default), dot, svg")
	cmd.Flags().StringSliceVar(&opts.domains, "domains", nil, "domain IDs to keep (comma-separated)")
	cmd.Flags().StringVarP(&opts.search, "search", "q", "", "filter principles by substring")
	cmd.Flags().IntVar(&opts.min, "min", 0, "minimum connection count")
	cmd.Flags().BoolVar(&opts.cross, "cross", false, "keep only cross-domain edges")
	cmd.Flags().StringVar(&opts.view, "view", opts.view, "scene view: formulas (default), replicas")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include references in DOT labels")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to TOML config file (store input)")

	return cmd
}

// runRender loads the dataset, assembles the requested output, and writes it.
func runRender(ctx context.Context, input, configPath string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	sp := newSpinnerWithContext(ctx, "Loading dataset...")
	sp.Start()
	ds, err := loadDataset(ctx, input, configPath)
	sp.Stop()
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger.Debug("dataset loaded", "formulas", len(ds.Formulas), "domains", len(ds.Domains))

	formulas := ds.Formulas
	edges := ds.Edges
	if opts.search != "" {
		needle := strings.ToLower(opts.search)
		kept := make([]graph.Formula, 0, len(formulas))
		for _, f := range formulas {
			if strings.Contains(strings.ToLower(f.Principle), needle) {
				kept = append(kept, f)
			}
		}
		formulas = kept
		// Edges must reflect the searched subset, not the full set.
		edges = graph.BuildEdges(formulas)
	}

	var data []byte
	switch opts.format {
	case formatScene:
		params := scene.Params{
			SelectedDomains: opts.domains,
			MinCount:        opts.min,
			CrossDomainOnly: opts.cross,
		}
		var sc *scene.Scene
		if opts.view == "replicas" {
			sc = scene.AssembleReplicas(graph.BuildReplicaRows(formulas), ds.Domains, params)
		} else {
			sc = scene.AssembleFormulas(formulas, ds.Domains, edges, params)
		}
		data, err = scene.Marshal(sc)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "marshal scene")
		}
	case formatDOT:
		dot := nodelink.ToDOT(formulas, ds.Domains, edges, nodelink.Options{Detailed: opts.detailed})
		data = []byte(dot)
	case formatSVG:
		dot := nodelink.ToDOT(formulas, ds.Domains, edges, nodelink.Options{Detailed: opts.detailed})
		data, err = nodelink.RenderSVG(dot)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "render svg")
		}
	}

	if opts.output == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := writeOutput(opts.output, data); err != nil {
		return err
	}

	prog.done(fmt.Sprintf("Rendered %s", opts.format))
	printSuccess("Wrote %s output", opts.format)
	printFile(opts.output)
	printStats(len(formulas), len(ds.Domains), len(edges))
	return nil
}

// loadDataset reads the dataset from a JSON file or the configured store.
func loadDataset(ctx context.Context, input, configPath string) (*graph.Dataset, error) {
	if input != "" {
		ds, err := graph.ReadDatasetFile(input)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "read dataset %s", input)
		}
		return ds, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	st, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Dataset(ctx)
}

// writeOutput writes data to path, creating parent directories as needed.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "create output dir")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "write output")
	}
	return nil
}
