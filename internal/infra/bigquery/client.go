package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

const (
	usersTable    = "users"
	expensesTable = "expenses"
)

// Client wraps a shared BigQuery client scoped to one project and dataset.
// Sharing one client avoids creating a new connection per operation.
type Client struct {
	bq      *bigquery.Client
	project string
	dataset string
}

// NewClient creates a Client for the given project and dataset.
// It assumes Application Default Credentials are configured.
func NewClient(ctx context.Context, project, dataset string) (*Client, error) {
	bq, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewClient: bigquery client: %w", err)
	}
	return &Client{
		bq:      bq,
		project: project,
		dataset: dataset,
	}, nil
}

// Close closes the underlying BigQuery client connection.
func (c *Client) Close() error {
	if c.bq != nil {
		return c.bq.Close()
	}
	return nil
}
