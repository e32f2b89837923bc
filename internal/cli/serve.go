package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/solgraph/solgraph/pkg/cache"
	"github.com/solgraph/solgraph/pkg/config"
	"github.com/solgraph/solgraph/pkg/errors"
	"github.com/solgraph/solgraph/pkg/etherscan"
	"github.com/solgraph/solgraph/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	configPath string
	addr       string
	apiKey     string
}

// newServeCmd creates the serve command, which exposes diagrams over HTTP.
//
// The server renders on demand and relies on the shared response cache
// (redis or mongo in multi-instance deployments) to keep explorer traffic
// down.
func newServeCmd() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve class diagrams over HTTP",
		Long: `Serve class diagrams over HTTP.

Endpoints:
  GET /healthz
  GET /diagram/{network}/{address}.{ext}   ext: dot, svg, png`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default: user config dir)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().StringVarP(&opts.apiKey, "api-key", "k", "", "explorer API key (overrides config)")

	return cmd
}

func runServe(ctx context.Context, opts *serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr == "" {
		opts.addr = cfg.Server.Addr
	}
	if opts.apiKey != "" {
		cfg.APIKey = opts.apiKey
	}

	store, err := openCache(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           newRouter(cfg, store, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", opts.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// newRouter builds the HTTP routes.
func newRouter(cfg config.Config, store cache.Cache, logger *log.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	r.Get("/diagram/{network}/{file}", func(w http.ResponseWriter, req *http.Request) {
		network := chi.URLParam(req, "network")
		address, ext, ok := splitDiagramFile(chi.URLParam(req, "file"))
		if !ok {
			httpError(w, errors.New(errors.ErrCodeInvalidFormat,
				"path must be {address}.{dot|svg|png}"))
			return
		}

		data, contentType, err := renderDiagram(req.Context(), cfg, store, network, address, ext)
		if err != nil {
			logger.Errorf("diagram %s/%s: %v", network, address, err)
			httpError(w, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Write(data)
	})

	return r
}

// splitDiagramFile splits "0xabc....svg" into address and extension.
func splitDiagramFile(file string) (address, ext string, ok bool) {
	idx := strings.LastIndexByte(file, '.')
	if idx <= 0 || idx == len(file)-1 {
		return "", "", false
	}
	address, ext = file[:idx], file[idx+1:]
	switch ext {
	case pipeline.FormatDOT, pipeline.FormatSVG, pipeline.FormatPNG:
		return address, ext, true
	}
	return "", "", false
}

// renderDiagram runs the full fetch → parse → render chain for one request.
func renderDiagram(ctx context.Context, cfg config.Config, store cache.Cache, network, address, ext string) ([]byte, string, error) {
	client, err := etherscan.NewClient(network, cfg.APIKey, store)
	if err != nil {
		return nil, "", err
	}

	contract, err := client.FetchSource(ctx, address, false)
	if err != nil {
		return nil, "", err
	}

	entities, err := buildEntities(ctx, contract.Files)
	if err != nil {
		return nil, "", err
	}

	runner := pipeline.NewRunner(nil)
	result, err := runner.Render(ctx, entities, pipeline.Options{Format: ext})
	if err != nil {
		return nil, "", err
	}

	contentTypes := map[string]string{
		pipeline.FormatDOT: "text/vnd.graphviz",
		pipeline.FormatSVG: "image/svg+xml",
		pipeline.FormatPNG: "image/png",
	}
	return result.Artifacts[ext], contentTypes[ext], nil
}

// httpError maps structured error codes onto HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidAddress, errors.ErrCodeInvalidNetwork, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNotVerified:
		status = http.StatusNotFound
	case errors.ErrCodeRateLimited:
		status = http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	http.Error(w, errors.UserMessage(err), status)
}
