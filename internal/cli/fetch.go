package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solgraph/solgraph/pkg/config"
	"github.com/solgraph/solgraph/pkg/etherscan"
)

// fetchOpts holds the command-line flags for the fetch command.
type fetchOpts struct {
	configPath string
	network    string
	apiKey     string
	output     string // destination directory
	refresh    bool
	noCache    bool
}

// newFetchCmd creates the fetch command, which downloads verified source
// for a contract address without rendering anything. Useful for inspecting
// source or feeding it into other tools.
func newFetchCmd() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch <address>",
		Short: "Download verified source for a contract",
		Example: `  solgraph fetch 0x1f9840a85d5af5bf1d1762f925bdaddc4201f984
  solgraph fetch 0x1f9840a85d5af5bf1d1762f925bdaddc4201f984 -n polygon -o src/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().StringVarP(&opts.network, "network", "n", "", "explorer network")
	cmd.Flags().StringVarP(&opts.apiKey, "api-key", "k", "", "explorer API key (overrides config)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "destination directory (default: contract name)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the response cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable response caching")

	return cmd
}

func runFetch(ctx context.Context, address string, opts *fetchOpts) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.network == "" {
		opts.network = cfg.Network
	}
	if opts.apiKey == "" {
		opts.apiKey = cfg.APIKey
	}

	store, err := openCache(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := etherscan.NewClient(opts.network, opts.apiKey, store)
	if err != nil {
		return err
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Fetching verified source for %s", address))
	spinner.Start()
	contract, err := client.FetchSource(ctx, address, opts.refresh)
	spinner.Stop()
	if err != nil {
		return err
	}

	dir := opts.output
	if dir == "" {
		dir = contract.Name
		if dir == "" {
			dir = address
		}
	}

	for _, file := range contract.Files {
		// Explorer-provided paths must not escape the destination.
		rel := filepath.Clean(filepath.FromSlash(file.Filename))
		if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			rel = filepath.Base(rel)
		}
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(file.Code), 0o644); err != nil {
			return err
		}
		printFile(path)
	}

	printSuccess("Fetched %s (%d files, compiler %s)", contract.Name, len(contract.Files), contract.CompilerVersion)
	printNextStep("Draw the diagram", fmt.Sprintf("solgraph draw %s", dir))
	return nil
}
