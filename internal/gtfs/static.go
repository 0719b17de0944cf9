// Package gtfs loads a static GTFS feed and checks line layouts against it.
package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/OneBusAway/go-gtfs"

	"github.com/cbmason/trainspotting/internal/logging"
)

const maxStaticSize = 200 * 1024 * 1024

// Config locates a static GTFS zip, either a local path or an http(s) URL.
type Config struct {
	Source                string
	StaticAuthHeaderKey   string
	StaticAuthHeaderValue string
}

func (c Config) isLocalFile() bool {
	return !strings.HasPrefix(c.Source, "http://") && !strings.HasPrefix(c.Source, "https://")
}

func rawGtfsData(ctx context.Context, config Config) ([]byte, error) {
	if config.isLocalFile() {
		b, err := os.ReadFile(config.Source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, config.Source, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GTFS request: %w", err)
	}
	if config.StaticAuthHeaderKey != "" && config.StaticAuthHeaderValue != "" {
		req.Header.Set(config.StaticAuthHeaderKey, config.StaticAuthHeaderValue)
	}

	client := &http.Client{
		Timeout: 5 * time.Minute,
		Transport: &http.Transport{
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download GTFS data: received HTTP status %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxStaticSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	if int64(len(b)) > maxStaticSize {
		return nil, fmt.Errorf("static GTFS response exceeds size limit of %d bytes", maxStaticSize)
	}
	return b, nil
}

// LoadStatic reads and parses the feed named by config.
func LoadStatic(ctx context.Context, config Config) (*gtfs.Static, error) {
	b, err := rawGtfsData(ctx, config)
	if err != nil {
		return nil, err
	}
	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return staticData, nil
}
