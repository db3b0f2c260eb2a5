package stationinfo

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fuel-price-etl/internal/domain"
	"github.com/couchcryptid/fuel-price-etl/internal/observability"
	"golang.org/x/time/rate"
)

const (
	// DefaultURLTemplate is the map popup endpoint of prix-carburants.gouv.fr.
	DefaultURLTemplate = "https://www.prix-carburants.gouv.fr/map/recuperer_infos_pdv/{id}"

	idPlaceholder = "{id}"
	maxBodyBytes  = 1 << 20
)

// strongRe matches the first bold span of the popup, which holds the name.
var strongRe = regexp.MustCompile(`(?s)<strong>(.*?)</strong>`)

// Client implements domain.NameLookup against the station popup endpoint.
type Client struct {
	httpClient  *http.Client
	urlTemplate string
	limiter     *rate.Limiter
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewHTTPClient builds the connection pool shared by every lookup of a run.
// maxConns should match the lookup concurrency so connections are reused.
func NewHTTPClient(timeout time.Duration, maxConns int) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = maxConns
	transport.MaxIdleConnsPerHost = maxConns
	transport.MaxConnsPerHost = maxConns
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// NewClient creates a name lookup client. urlTemplate must contain "{id}".
// A requestsPerSecond of 0 disables throttling.
func NewClient(httpClient *http.Client, urlTemplate string, requestsPerSecond float64, burst int, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		httpClient:  httpClient,
		urlTemplate: urlTemplate,
		metrics:     metrics,
		logger:      logger,
	}
	if requestsPerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
	return c
}

// LookupName fetches the popup of one station and extracts its name.
func (c *Client) LookupName(ctx context.Context, id int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	u := strings.ReplaceAll(c.urlTemplate, idPlaceholder, strconv.Itoa(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	// The endpoint only answers AJAX-style requests.
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.NameLookupDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("name lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.logger.Debug("name lookup rejected", "station_id", id, "status", resp.StatusCode)
		return "", fmt.Errorf("name lookup API error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return ExtractName(body)
}

// ExtractName returns the text of the first <strong> span of an HTML body.
func ExtractName(body []byte) (string, error) {
	m := strongRe.FindSubmatch(body)
	if m == nil {
		return "", domain.ErrNameNotFound
	}
	name := strings.TrimSpace(html.UnescapeString(string(m[1])))
	if name == "" {
		return "", domain.ErrNameNotFound
	}
	return name, nil
}
