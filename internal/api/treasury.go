package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rickgao/dao-risk/internal/model"
)

// GetTreasuryHistory fetches the full daily valuation history of a DAO
// treasury. Filtering by date is left to the caller.
func (c *Client) GetTreasuryHistory(ctx context.Context, dao string) ([]model.Valuation, error) {
	var resp TreasuryResponse
	if err := c.get(ctx, "/treasury/"+url.PathEscape(dao), nil, &resp); err != nil {
		return nil, fmt.Errorf("get treasury %s: %w", dao, err)
	}

	out := make([]model.Valuation, len(resp.TVL))
	for i, p := range resp.TVL {
		out[i] = p.ToModel()
	}
	return out, nil
}

// TreasuryProvider fetches one DAO's treasury history.
type TreasuryProvider struct {
	client *Client
	dao    string
}

// NewTreasuryProvider creates a TreasuryProvider.
func NewTreasuryProvider(client *Client, dao string) *TreasuryProvider {
	return &TreasuryProvider{client: client, dao: dao}
}

// Fetch returns the full valuation history.
func (p *TreasuryProvider) Fetch(ctx context.Context) ([]model.Valuation, error) {
	return p.client.GetTreasuryHistory(ctx, p.dao)
}
