package googlecloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/datastore"
)

// Client stores POA upload logs in Cloud Datastore.
type Client struct {
	ds    *datastore.Client
	retry RetryConfig
}

// NewClient creates a Datastore client for projectID. DATASTORE_EMULATOR_HOST
// is honored by the underlying client.
func NewClient(ctx context.Context, projectID string) (*Client, error) {
	ds, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return &Client{ds: ds, retry: DefaultRetryConfig()}, nil
}

// EmulatorHost reports the emulator address the client talks to, if any.
func EmulatorHost() string {
	return os.Getenv("DATASTORE_EMULATOR_HOST")
}

func (c *Client) Close() error {
	return c.ds.Close()
}
