package notion

import (
	"context"
	"fmt"
)

// ListOrderNumbers pages through the transactions database and collects every
// order number already present. The set is the dedup baseline for a run.
func (c *Client) ListOrderNumbers(ctx context.Context, databaseID string) (map[string]struct{}, error) {
	orderNumbers := make(map[string]struct{})
	payload := queryRequest{}

	for {
		var resp queryResponse
		if err := c.post(ctx, "/v1/databases/"+databaseID+"/query", payload, &resp); err != nil {
			return nil, fmt.Errorf("list order numbers: %w", err)
		}
		for _, pg := range resp.Results {
			if prop, ok := pg.Properties[PropOrderNumber]; ok {
				if orderNo := prop.text(); orderNo != "" {
					orderNumbers[orderNo] = struct{}{}
				}
			}
		}
		if !resp.HasMore {
			break
		}
		payload.StartCursor = resp.NextCursor
	}

	c.logger.Info("Fetched existing order numbers", "count", len(orderNumbers))
	return orderNumbers, nil
}

// CreateTransactionPage creates one transaction page with the given
// property payload.
func (c *Client) CreateTransactionPage(ctx context.Context, databaseID string, props Properties) error {
	payload := createPageRequest{
		Parent:     map[string]string{"database_id": databaseID},
		Properties: props,
	}
	if err := c.post(ctx, "/v1/pages", payload, nil); err != nil {
		return fmt.Errorf("create transaction page: %w", err)
	}
	return nil
}
