package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
)

const DefaultBaseURL = "https://s3.amazonaws.com/nyc-tlc/trip+data/"

type HTTPOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// HTTPFetcher downloads source files with a plain GET on BaseURL + name.
type HTTPFetcher struct {
	opts       HTTPOptions
	httpClient *http.Client
}

func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	// zero timeout means no timeout, source files are hundreds of MBs
	return &HTTPFetcher{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	url := f.opts.BaseURL + name
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Add("User-Agent", f.opts.UserAgent)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		glog.Errorf("Get request error to source url=%q, err=%q", url, err)
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		glog.Errorf("Status error from source url=%q, status=%d, body=%q", url, resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: GET %s returned status %d", ErrSourceUnavailable, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		glog.Errorf("Error reading source response body url=%q, status=%d, error=%q", url, resp.StatusCode, err)
		return nil, fmt.Errorf("%w: error reading body: %s", ErrSourceUnavailable, err)
	}
	if glog.V(7) {
		glog.Infof("Source get request done url=%q, status=%d, latency=%v, bytes=%d",
			url, resp.StatusCode, time.Since(start), len(body))
	}
	return body, nil
}
