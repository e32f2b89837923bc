// Package etherscan fetches verified contract source from block explorers.
//
// It speaks the Etherscan getsourcecode API, which most EVM block explorers
// implement. Responses are cached through [cache.Cache]; transient failures
// retry with backoff.
//
// All Client methods are safe for concurrent use by multiple goroutines.
package etherscan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/solgraph/solgraph/pkg/cache"
	"github.com/solgraph/solgraph/pkg/errors"
	"github.com/solgraph/solgraph/pkg/observability"
)

// Networks maps network name to explorer API base URL.
var Networks = map[string]string{
	"mainnet":   "https://api.etherscan.io/api",
	"sepolia":   "https://api-sepolia.etherscan.io/api",
	"holesky":   "https://api-holesky.etherscan.io/api",
	"polygon":   "https://api.polygonscan.com/api",
	"arbitrum":  "https://api.arbiscan.io/api",
	"optimism":  "https://api-optimistic.etherscan.io/api",
	"base":      "https://api.basescan.org/api",
	"bsc":       "https://api.bscscan.com/api",
	"avalanche": "https://api.snowtrace.io/api",
	"gnosis":    "https://api.gnosisscan.io/api",
}

// DefaultNetwork is used when no network is configured.
const DefaultNetwork = "mainnet"

// NetworkNames returns the supported network names, sorted.
func NetworkNames() []string {
	names := make([]string, 0, len(Networks))
	for name := range Networks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ValidAddress reports whether s looks like an EVM contract address.
func ValidAddress(s string) bool {
	return addressRe.MatchString(s)
}

// SourceFile is one verified source file. Filename is the path the contract
// was verified under; for single-file verifications it is derived from the
// contract name.
type SourceFile struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
}

// Contract is the verified source bundle for one deployed contract.
// Files preserves the order the explorer returned, which matters for
// diagram determinism.
type Contract struct {
	Name            string       `json:"name"`
	CompilerVersion string       `json:"compiler_version"`
	Files           []SourceFile `json:"files"`
}

// Client fetches verified source from one explorer network.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	network string
	baseURL string
	apiKey  string
}

// NewClient creates a client for the given network. A nil cache disables
// caching. The API key may be empty; explorers then apply their anonymous
// rate limits.
func NewClient(network, apiKey string, c cache.Cache) (*Client, error) {
	if network == "" {
		network = DefaultNetwork
	}
	baseURL, ok := Networks[network]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidNetwork,
			"unknown network %q (supported: %s)", network, strings.Join(NetworkNames(), ", "))
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   c,
		network: network,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// Network returns the network this client talks to.
func (c *Client) Network() string {
	return c.network
}

// FetchSource retrieves the verified source bundle for a contract address.
//
// If refresh is true the cache is bypassed and the explorer is always asked.
// Transient failures (network errors, 5xx, rate limits) retry with backoff.
func (c *Client) FetchSource(ctx context.Context, address string, refresh bool) (*Contract, error) {
	if !ValidAddress(address) {
		return nil, errors.New(errors.ErrCodeInvalidAddress, "not a contract address: %q", address)
	}
	address = strings.ToLower(address)

	start := time.Now()
	observability.Pipeline().OnFetchStart(ctx, c.network, address)
	contract, err := c.fetchCached(ctx, address, refresh)

	fileCount := 0
	if contract != nil {
		fileCount = len(contract.Files)
	}
	observability.Pipeline().OnFetchComplete(ctx, c.network, address, fileCount, time.Since(start), err)
	return contract, err
}

func (c *Client) fetchCached(ctx context.Context, address string, refresh bool) (*Contract, error) {
	key := "etherscan:" + c.network + ":" + address

	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			var contract Contract
			if err := json.Unmarshal(data, &contract); err == nil {
				observability.Cache().OnCacheHit(ctx, "source")
				return &contract, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "source")
	}

	var contract *Contract
	err := cache.RetryWithBackoff(ctx, func() error {
		var ferr error
		contract, ferr = c.fetch(ctx, address)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(contract); err == nil {
		_ = c.cache.Set(ctx, key, data, cache.DefaultTTL)
		observability.Cache().OnCacheSet(ctx, "source", len(data))
	}
	return contract, nil
}

// envelope is the outer Etherscan API response. Result is either the record
// array or, on errors, a bare string.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type sourceRecord struct {
	SourceCode      string `json:"SourceCode"`
	ABI             string `json:"ABI"`
	ContractName    string `json:"ContractName"`
	CompilerVersion string `json:"CompilerVersion"`
}

func (c *Client) fetch(ctx context.Context, address string) (*Contract, error) {
	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address)
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	reqURL := c.baseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build request for %s", address)
	}

	host := req.URL.Host
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, req.URL.Path)
	reqStart := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, req.URL.Path, err)
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "fetch source for %s", address))
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, req.URL.Path, resp.StatusCode, time.Since(reqStart))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeRateLimited,
			&errors.RateLimitedError{}, "explorer rate limit for %s", address))
	case resp.StatusCode >= 500:
		return nil, cache.Retryable(errors.New(errors.ErrCodeNetwork,
			"explorer returned status %d for %s", resp.StatusCode, address))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.New(errors.ErrCodeNetwork,
			"explorer returned status %d for %s", resp.StatusCode, address)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "decode explorer response for %s", address)
	}

	if env.Status != "1" {
		var detail string
		_ = json.Unmarshal(env.Result, &detail)
		if strings.Contains(strings.ToLower(detail), "rate limit") {
			return nil, cache.Retryable(errors.Wrap(errors.ErrCodeRateLimited,
				&errors.RateLimitedError{Message: detail}, "explorer rate limit for %s", address))
		}
		return nil, errors.New(errors.ErrCodeNetwork,
			"explorer error for %s: %s: %s", address, env.Message, detail)
	}

	var records []sourceRecord
	if err := json.Unmarshal(env.Result, &records); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err,
			"decode source records for %s: %s", address, truncate(string(env.Result), 200))
	}
	if len(records) == 0 || records[0].SourceCode == "" ||
		strings.Contains(records[0].ABI, "not verified") {
		return nil, errors.New(errors.ErrCodeNotVerified,
			"no verified source for %s on %s", address, c.network)
	}

	rec := records[0]
	files, err := parseSourceCode(rec.SourceCode, rec.ContractName, address)
	if err != nil {
		return nil, err
	}
	return &Contract{
		Name:            rec.ContractName,
		CompilerVersion: rec.CompilerVersion,
		Files:           files,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
