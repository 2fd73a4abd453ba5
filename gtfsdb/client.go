package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"marguerite.stanford.edu/internal/logging"
)

// Client is the main entry point for the library
type Client struct {
	config        Config
	DB            *sql.DB
	Queries       *Queries
	logger        *slog.Logger
	httpClient    *http.Client
	importRuntime time.Duration
}

// NewClient opens the database described by config and applies the schema.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, err
	}

	client := &Client{
		config:     config,
		DB:         db,
		Queries:    New(db),
		logger:     slog.Default().With(slog.String("component", "gtfsdb")),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	if config.verbose {
		logging.LogOperation(client.logger, "gtfs_database_ready", slog.String("path", config.DBPath))
	}
	return client, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// ImportRuntime reports how long the last import took.
func (c *Client) ImportRuntime() time.Duration {
	return c.importRuntime
}

// DownloadAndStore downloads GTFS data from the given URL and stores it in the database
func (c *Client) DownloadAndStore(ctx context.Context, url string) error {
	b, err := c.download(ctx, url)
	if err != nil {
		return err
	}
	return c.processAndStoreGTFSDataWithSource(ctx, b, url)
}

// ImportFromFile imports GTFS data from a local zip file into the database
func (c *Client) ImportFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading GTFS file %s: %w", path, err)
	}
	return c.processAndStoreGTFSDataWithSource(ctx, data, path)
}

// ImportBytes imports an in-memory GTFS zip recorded under source.
func (c *Client) ImportBytes(ctx context.Context, data []byte, source string) error {
	return c.processAndStoreGTFSDataWithSource(ctx, data, source)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building GTFS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "gtfs_download_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("error downloading GTFS data: unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	return b, nil
}
