// Package fetch retrieves raw vendor payloads from live HTTP endpoints
// configured through the environment. One endpoint per source, no retries;
// callers decide what a failed fetch means.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/speedwagon-io/odse/internal/oem"
)

const (
	envPrefix      = "ODSE_LIVE_"
	defaultTimeout = 30 * time.Second

	// FRONIUS_HOST is accepted as a shorthand because the Fronius realtime
	// API lives at a fixed path on the inverter itself.
	froniusHostEnv  = "FRONIUS_HOST"
	froniusPathTmpl = "http://%s/solar_api/v1/GetPowerFlowRealtimeData.fcgi"
)

// Config describes one live endpoint, assembled from
// ODSE_LIVE_<SOURCE>_{URL,METHOD,HEADERS,BODY,TIMEOUT,OPTIONS} variables.
type Config struct {
	Source  string
	URL     string
	Method  string
	Headers map[string]string
	Body    string
	Timeout time.Duration
	Options oem.Options
}

// LookupConfig reads the live endpoint configuration for source from the
// environment. The second return is false when no URL is configured.
func LookupConfig(source string) (Config, bool) {
	prefix := envPrefix + strings.ToUpper(source) + "_"

	url := os.Getenv(prefix + "URL")
	if url == "" && strings.EqualFold(source, "fronius") {
		if host := os.Getenv(froniusHostEnv); host != "" {
			url = fmt.Sprintf(froniusPathTmpl, host)
		}
	}
	if url == "" {
		return Config{}, false
	}

	return Config{
		Source:  source,
		URL:     url,
		Method:  strings.ToUpper(envOrDefault(prefix+"METHOD", http.MethodGet)),
		Headers: envHeaders(prefix + "HEADERS"),
		Body:    envJSONText(prefix + "BODY"),
		Timeout: envSeconds(prefix+"TIMEOUT", defaultTimeout),
		Options: envOptions(prefix + "OPTIONS"),
	}, true
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// envHeaders parses a JSON object of header values. Malformed input is
// treated as unset.
func envHeaders(name string) map[string]string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}
	var headers map[string]string
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil
	}
	return headers
}

// envJSONText returns the raw value when it is valid JSON, else empty.
func envJSONText(name string) string {
	raw := os.Getenv(name)
	if raw == "" || !json.Valid([]byte(raw)) {
		return ""
	}
	return raw
}

// envSeconds reads a whole-second timeout value.
func envSeconds(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// transform option overrides ride along in one JSON env value per source.
type optionsJSON struct {
	AssetID         string `json:"asset_id"`
	Timezone        string `json:"timezone"`
	IntervalMinutes int    `json:"interval_minutes"`
	ExpectedDevices int    `json:"expected_devices"`
}

func envOptions(name string) oem.Options {
	raw := os.Getenv(name)
	if raw == "" {
		return oem.Options{}
	}
	var opts optionsJSON
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return oem.Options{}
	}
	return oem.Options{
		AssetID:         opts.AssetID,
		Timezone:        opts.Timezone,
		IntervalMinutes: opts.IntervalMinutes,
		ExpectedDevices: opts.ExpectedDevices,
	}
}

// Client executes configured live requests.
type Client struct {
	log    *slog.Logger
	client *http.Client
}

func NewClient(log *slog.Logger) *Client {
	return &Client{
		log:    log,
		client: &http.Client{},
	}
}

// Fetch performs the configured request and returns the raw response body.
func (c *Client) Fetch(ctx context.Context, cfg Config) (string, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	var body io.Reader
	if cfg.Body != "" {
		body = strings.NewReader(cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, cfg.URL, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	for name, value := range cfg.Headers {
		req.Header.Set(name, value)
	}
	if cfg.Body != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("fetching live payload",
		slog.String("source", cfg.Source),
		slog.String("method", cfg.Method),
		slog.String("url", cfg.URL),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d for %s", resp.StatusCode, cfg.URL)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(raw), nil
}

// Close releases pooled connections.
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
