package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

// Fetcher reads OpenAPI documents from a local path, an fs.FS or an
// HTTP(S) URL.
type Fetcher struct {
	FS     fs.FS
	Client *http.Client
}

// Fetch returns the raw document at location. URLs require a Client; paths
// resolve against FS when set, else the operating system.
func (f Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if location == "" {
		return nil, errors.New("openapi: document location is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return f.fetchHTTP(ctx, location)
	}

	var (
		data []byte
		err  error
	)
	if f.FS != nil {
		data, err = fs.ReadFile(f.FS, location)
	} else {
		data, err = os.ReadFile(location)
	}
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", location, err)
	}
	return data, nil
}

func (f Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	if f.Client == nil {
		return nil, errors.New("openapi: http support disabled")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("openapi: build request: %w", err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openapi: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openapi: fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openapi: read body: %w", err)
	}
	return data, nil
}
