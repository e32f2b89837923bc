package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/solgraph/solgraph/pkg/cache"
	"github.com/solgraph/solgraph/pkg/config"
	"github.com/solgraph/solgraph/pkg/etherscan"
	"github.com/solgraph/solgraph/pkg/model"
	"github.com/solgraph/solgraph/pkg/observability"
	"github.com/solgraph/solgraph/pkg/parser"
	"github.com/solgraph/solgraph/pkg/pipeline"
	"github.com/solgraph/solgraph/pkg/render/dot"
)

// drawOpts holds the command-line flags for the draw command.
type drawOpts struct {
	configPath string // path to config.toml, empty for the default location
	network    string // explorer network for address arguments
	apiKey     string // explorer API key
	output     string // output file or directory
	format     string // dot, svg, png, or all
	scale      float64

	hideAttributes bool
	hideOperators  bool
	hideStructs    bool
	hideEnums      bool
	hideLibraries  bool
	hideInterfaces bool
	clusterFolders bool

	refresh     bool // bypass the response cache
	noCache     bool // disable caching entirely
	interactive bool // pick contracts to include interactively
}

// newDrawCmd creates the draw command, the main entry point of the CLI.
// It accepts either local Solidity files/directories or a single contract
// address whose verified source is fetched from a block explorer.
func newDrawCmd() *cobra.Command {
	var opts drawOpts

	cmd := &cobra.Command{
		Use:   "draw <file.sol|dir|address> ...",
		Short: "Generate a UML class diagram",
		Long: `Generate a UML class diagram from Solidity source.

Arguments are either local .sol files and directories, or one contract
address (0x...). For addresses, the verified source is fetched from the
configured block explorer and cached locally.`,
		Example: `  solgraph draw contracts/
  solgraph draw Token.sol Vault.sol -f svg -o out/
  solgraph draw 0x1f9840a85d5af5bf1d1762f925bdaddc4201f984 --network mainnet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDraw(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().StringVarP(&opts.network, "network", "n", "", "explorer network for addresses: "+strings.Join(etherscan.NetworkNames(), ", "))
	cmd.Flags().StringVarP(&opts.apiKey, "api-key", "k", "", "explorer API key (overrides config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or directory")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png (default), svg, dot, all")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "PNG scale factor (default 2.0)")

	cmd.Flags().BoolVar(&opts.hideAttributes, "hide-attributes", false, "omit state variables")
	cmd.Flags().BoolVar(&opts.hideOperators, "hide-operators", false, "omit functions, events, and modifiers")
	cmd.Flags().BoolVar(&opts.hideStructs, "hide-structs", false, "omit struct satellites")
	cmd.Flags().BoolVar(&opts.hideEnums, "hide-enums", false, "omit enum satellites")
	cmd.Flags().BoolVar(&opts.hideLibraries, "hide-libraries", false, "omit library contracts")
	cmd.Flags().BoolVar(&opts.hideInterfaces, "hide-interfaces", false, "omit interface contracts")
	cmd.Flags().BoolVar(&opts.clusterFolders, "cluster-folders", false, "draw labeled boxes around source folders")

	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable response caching")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick contracts to include interactively")

	return cmd
}

func runDraw(ctx context.Context, args []string, opts *drawOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyDrawConfig(&cfg, opts)

	sources, name, cached, err := resolveSources(ctx, args, cfg, opts)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	entities, err := buildEntities(ctx, sources)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Parsed %d contracts from %d files", len(entities), len(sources)))

	if len(entities) == 0 {
		printWarning("No contract declarations found")
		return nil
	}

	if opts.interactive {
		entities, err = selectEntities(entities)
		if err != nil {
			return err
		}
		if len(entities) == 0 {
			printInfo("Nothing selected")
			return nil
		}
	}

	runner := pipeline.NewRunner(logger)
	result, err := runner.Export(ctx, entities, pipeline.Options{
		Format:     opts.format,
		OutputPath: opts.output,
		Name:       name,
		Scale:      opts.scale,
		Diagram:    diagramOptions(opts),
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	printSuccess("Generated class diagram")
	printStats(len(entities), len(sources), cached)
	for _, path := range result.Files {
		printFile(path)
	}
	return nil
}

// applyDrawConfig merges config-file defaults into unset flags.
func applyDrawConfig(cfg *config.Config, opts *drawOpts) {
	if opts.network == "" {
		opts.network = cfg.Network
	}
	if opts.apiKey == "" {
		opts.apiKey = cfg.APIKey
	}
	if opts.format == "" {
		opts.format = cfg.Render.Format
	}
	if opts.scale == 0 {
		opts.scale = cfg.Render.Scale
	}
	if cfg.Render.ClusterFolders {
		opts.clusterFolders = true
	}
}

// resolveSources turns command arguments into source files, either by
// reading local paths or by fetching verified source for an address.
// The returned name is the base for output file naming; cached reports
// whether an explorer response was served from cache.
func resolveSources(ctx context.Context, args []string, cfg config.Config, opts *drawOpts) ([]etherscan.SourceFile, string, bool, error) {
	if isSolidityPath(args[0]) {
		files, err := collectSolidityFiles(args)
		if err != nil {
			return nil, "", false, err
		}
		sources := make([]etherscan.SourceFile, 0, len(files))
		for _, path := range files {
			code, err := os.ReadFile(path)
			if err != nil {
				return nil, "", false, err
			}
			sources = append(sources, etherscan.SourceFile{Filename: path, Code: string(code)})
		}
		name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		return sources, name, false, nil
	}

	if len(args) > 1 {
		return nil, "", false, fmt.Errorf("only one contract address may be given, got %d arguments", len(args))
	}

	contract, cached, err := fetchContract(ctx, args[0], cfg, opts)
	if err != nil {
		return nil, "", false, err
	}
	name := contract.Name
	if name == "" {
		name = args[0]
	}
	return contract.Files, name, cached, nil
}

// fetchContract fetches verified source for an address, reporting whether
// the response came from the local cache.
func fetchContract(ctx context.Context, address string, cfg config.Config, opts *drawOpts) (*etherscan.Contract, bool, error) {
	store, err := openCache(ctx, cfg, opts.noCache)
	if err != nil {
		return nil, false, err
	}
	defer store.Close()

	client, err := etherscan.NewClient(opts.network, opts.apiKey, store)
	if err != nil {
		return nil, false, err
	}

	hit := &cacheHitRecorder{}
	observability.SetCacheHooks(hit)
	defer observability.Reset()

	spinner := newSpinner(ctx, fmt.Sprintf("Fetching verified source for %s", address))
	spinner.Start()
	contract, err := client.FetchSource(ctx, address, opts.refresh)
	spinner.Stop()
	if err != nil {
		return nil, false, err
	}
	return contract, hit.hit, nil
}

// openCache opens the configured cache backend, or a null cache when
// caching is disabled.
func openCache(ctx context.Context, cfg config.Config, disabled bool) (cache.Cache, error) {
	if disabled {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	return cfg.OpenCache(ctx, dir)
}

// cacheHitRecorder records whether any cache hit happened during a fetch.
type cacheHitRecorder struct {
	observability.NoopCacheHooks
	hit bool
}

func (r *cacheHitRecorder) OnCacheHit(ctx context.Context, keyType string) {
	r.hit = true
}

// buildEntities parses every source file and builds the class model.
// One builder is shared across files so entity IDs stay unique.
func buildEntities(ctx context.Context, sources []etherscan.SourceFile) ([]*model.Entity, error) {
	p := parser.New()
	builder := model.NewBuilder()

	var entities []*model.Entity
	for _, src := range sources {
		start := time.Now()
		observability.Pipeline().OnParseStart(ctx, src.Filename)

		unit, err := p.Parse(src.Filename, src.Code)
		if err != nil {
			observability.Pipeline().OnParseComplete(ctx, src.Filename, 0, time.Since(start), err)
			return nil, err
		}

		built := builder.Build(unit, src.Filename)
		observability.Pipeline().OnParseComplete(ctx, src.Filename, len(built), time.Since(start), nil)
		entities = append(entities, built...)
	}
	return entities, nil
}

// diagramOptions maps hide flags onto DOT serialization options.
func diagramOptions(opts *drawOpts) dot.Options {
	return dot.Options{
		HideAttributes: opts.hideAttributes,
		HideOperators:  opts.hideOperators,
		HideStructs:    opts.hideStructs,
		HideEnums:      opts.hideEnums,
		HideLibraries:  opts.hideLibraries,
		HideInterfaces: opts.hideInterfaces,
		ClusterFolders: opts.clusterFolders,
	}
}
