package dspace

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/pulibrary/pdc-describe-sub000/internal/config"
	"github.com/pulibrary/pdc-describe-sub000/internal/core/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "migration_legacy_downloads_total",
			Help: "Legacy bitstream downloads by result",
		},
		[]string{"result"},
	)

	downloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "migration_legacy_download_duration_seconds",
			Help:    "Duration of legacy bitstream downloads in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		},
	)
)

// Client is the legacy repository REST connector
type Client struct {
	http            *retryablehttp.Client
	baseURL         *url.URL
	limiter         *rate.Limiter
	items           *expirable.LRU[string, int64]
	stagingDir      string
	requestTimeout  time.Duration
	downloadTimeout time.Duration
	concurrency     int
	logger          *slog.Logger
}

// NewClient returns Client
func NewClient(cfg config.LegacyConfig, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid legacy base url: %w", err)
	}

	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.RetryWaitMin = 500 * time.Millisecond
	httpClient.RetryWaitMax = 5 * time.Second
	httpClient.Logger = logger

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	concurrency := cfg.DownloadConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	cacheSize := cfg.HandleCacheSize
	if cacheSize <= 0 {
		cacheSize = 1
	}

	return &Client{
		http:            httpClient,
		baseURL:         base,
		limiter:         rate.NewLimiter(limit, concurrency),
		items:           expirable.NewLRU[string, int64](cacheSize, nil, cfg.HandleCacheTTL),
		stagingDir:      cfg.StagingDir,
		requestTimeout:  cfg.RequestTimeout,
		downloadTimeout: cfg.DownloadTimeout,
		concurrency:     concurrency,
		logger:          logger,
	}, nil
}

type handleResponse struct {
	ID int64 `json:"id"`
}

type bitstreamResponse struct {
	Name         string `json:"name"`
	RetrieveLink string `json:"retrieveLink"`
	CheckSum     struct {
		Algorithm string `json:"checkSumAlgorithm"`
		Value     string `json:"value"`
	} `json:"checkSum"`
}

// ListBitstreams resolves the ARK to a legacy item and lists its bitstreams
func (c *Client) ListBitstreams(ctx context.Context, ark string) ([]domain.Bitstream, error) {
	itemID, err := c.resolveItem(ctx, ark)
	if err != nil {
		return nil, err
	}
	if itemID == 0 {
		c.logger.Info("no legacy item for ark", "ark", ark)
		return []domain.Bitstream{}, nil
	}

	var payload []bitstreamResponse
	found, err := c.getJSON(ctx, c.endpoint("items", strconv.FormatInt(itemID, 10), "bitstreams"), &payload)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: item %d has no bitstream listing", domain.ErrSourceUnavailable, itemID)
	}

	bitstreams := make([]domain.Bitstream, 0, len(payload))
	for _, b := range payload {
		bitstreams = append(bitstreams, domain.Bitstream{
			ItemID:            itemID,
			Name:              b.Name,
			RetrieveLink:      b.RetrieveLink,
			ChecksumAlgorithm: b.CheckSum.Algorithm,
			ChecksumValue:     b.CheckSum.Value,
		})
	}
	return bitstreams, nil
}

// resolveItem returns 0 when the ARK has no legacy item
func (c *Client) resolveItem(ctx context.Context, ark string) (int64, error) {
	path := domain.ARKPath(ark)
	if path == "" {
		return 0, nil
	}
	if id, ok := c.items.Get(path); ok {
		return id, nil
	}

	var payload *handleResponse
	found, err := c.getJSON(ctx, c.endpoint(append([]string{"handle"}, strings.Split(path, "/")...)...), &payload)
	if err != nil {
		return 0, err
	}
	if !found || payload == nil || payload.ID == 0 {
		return 0, nil
	}

	c.items.Add(path, payload.ID)
	return payload.ID, nil
}

// getJSON decodes the body of a GET into v. A 404 reports found=false.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) (bool, error) {
	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: GET %s: %v", domain.ErrSourceUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("%w: GET %s returned %d", domain.ErrSourceUnavailable, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("%w: decoding %s: %v", domain.ErrSourceUnavailable, endpoint, err)
	}
	return true, nil
}

// DownloadBitstreams stages every bitstream with bounded parallelism.
// One failing bitstream never cancels the others.
func (c *Client) DownloadBitstreams(ctx context.Context, bitstreams []domain.Bitstream) []domain.DownloadResult {
	results := make([]domain.DownloadResult, len(bitstreams))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, b := range bitstreams {
		i, b := i, b
		g.Go(func() error {
			results[i] = c.download(ctx, i, b)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (c *Client) download(ctx context.Context, index int, b domain.Bitstream) domain.DownloadResult {
	result := domain.DownloadResult{Index: index, Bitstream: b}

	if !b.Verifiable() {
		c.logger.Warn("skipping bitstream with unsupported checksum algorithm",
			"name", b.Name,
			"algorithm", b.ChecksumAlgorithm)
		downloadsTotal.WithLabelValues("unverifiable").Inc()
		result.Err = fmt.Errorf("%s: %w", b.Name, domain.ErrUnverifiableDigest)
		return result
	}

	start := time.Now()
	path, checksum, size, err := c.fetch(ctx, index, b)
	downloadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.logger.Error("bitstream download failed", "name", b.Name, "error", err)
		downloadsTotal.WithLabelValues("failed").Inc()
		result.Err = err
		return result
	}

	if !domain.ChecksumsEqual(checksum, b.Checksum()) {
		c.logger.Error("bitstream checksum mismatch",
			"name", b.Name,
			"expected", b.Checksum(),
			"actual", checksum)
		downloadsTotal.WithLabelValues("mismatch").Inc()
		_ = os.Remove(path)
		result.Err = fmt.Errorf("%s: %w", b.Name, domain.ErrChecksumMismatch)
		return result
	}

	downloadsTotal.WithLabelValues("ok").Inc()
	result.Path = path
	result.Checksum = checksum
	result.Size = size
	return result
}

func (c *Client) fetch(ctx context.Context, index int, b domain.Bitstream) (string, string, int64, error) {
	ctx, cancel := withTimeout(ctx, c.downloadTimeout)
	defer cancel()

	link, err := c.retrieveURL(b.RetrieveLink)
	if err != nil {
		return "", "", 0, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", "", 0, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", "", 0, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: GET %s: %v", domain.ErrSourceUnavailable, link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", 0, fmt.Errorf("%w: GET %s returned %d", domain.ErrSourceUnavailable, link, resp.StatusCode)
	}

	path := c.StagingPath(index, b)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", "", 0, fmt.Errorf("error creating staging dir: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", "", 0, fmt.Errorf("error creating staging file: %w", err)
	}

	hash := md5.New()
	size, err := io.Copy(io.MultiWriter(file, hash), resp.Body)
	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", "", 0, fmt.Errorf("%w: reading %s: %v", domain.ErrSourceUnavailable, link, err)
	}

	return path, hex.EncodeToString(hash.Sum(nil)), size, nil
}

// StagingPath is where a bitstream is staged, <staging>/<item id>/<index>/<base name>.
// The index keeps bitstreams of one item with the same base name apart.
func (c *Client) StagingPath(index int, b domain.Bitstream) string {
	return filepath.Join(c.stagingDir, strconv.FormatInt(b.ItemID, 10), strconv.Itoa(index), filepath.Base(b.Name))
}

func (c *Client) endpoint(segments ...string) string {
	return c.baseURL.JoinPath(segments...).String()
}

// retrieveURL resolves a retrieve link, absolute or relative to the API host
func (c *Client) retrieveURL(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid retrieve link %q: %w", link, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
