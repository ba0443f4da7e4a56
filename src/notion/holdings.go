package notion

import (
	"context"
	"fmt"

	"github.com/TreyDong/notion-csv-importer/src/models"
)

// QueryHoldingPage looks up a holding page by security code. It returns the
// page id of the first match, or found=false when no page exists yet.
func (c *Client) QueryHoldingPage(ctx context.Context, databaseID, securityCode string) (string, bool, error) {
	payload := queryRequest{
		Filter: map[string]any{
			"property": HoldingPropCode,
			"rich_text": map[string]any{
				"equals": securityCode,
			},
		},
		PageSize: 1,
	}

	var resp queryResponse
	if err := c.post(ctx, "/v1/databases/"+databaseID+"/query", payload, &resp); err != nil {
		return "", false, fmt.Errorf("query holding %s: %w", securityCode, err)
	}
	if len(resp.Results) == 0 {
		c.logger.Debug("No holding page for security", "code", securityCode)
		return "", false, nil
	}
	return resp.Results[0].ID, true, nil
}

// CreateHoldingPage creates a holding page and returns its id.
func (c *Client) CreateHoldingPage(ctx context.Context, databaseID string, rec models.HoldingRecord) (string, error) {
	props := Properties{
		HoldingPropTitle:        TitleProperty(rec.Title),
		HoldingPropCode:         RichTextProperty(rec.SecurityCode),
		HoldingPropSecurityType: SelectProperty(rec.SecurityType),
		HoldingPropExchangeCode: RichTextProperty(rec.ExchangeCode),
		HoldingPropOpenDate:     DateProperty(rec.OpenDate, false),
		HoldingPropQuantity:     NumberProperty(rec.Quantity),
		HoldingPropCostPrice:    NumberProperty(rec.CostPrice),
	}
	if rec.Market != "" {
		props[HoldingPropMarket] = SelectProperty(rec.Market)
	}

	payload := createPageRequest{
		Parent:     map[string]string{"database_id": databaseID},
		Properties: props,
	}

	var resp createPageResponse
	if err := c.post(ctx, "/v1/pages", payload, &resp); err != nil {
		return "", fmt.Errorf("create holding %s: %w", rec.SecurityCode, err)
	}
	c.logger.Info("Created holding page", "code", rec.SecurityCode, "pageID", resp.ID)
	return resp.ID, nil
}
