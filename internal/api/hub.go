package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rickgao/dao-risk/internal/model"
)

const proposalsQuery = `query Proposals($space: String!, $first: Int!, $createdGt: Int!) {
  proposals(
    first: $first
    where: { space: $space, created_gt: $createdGt }
    orderBy: "created"
    orderDirection: asc
  ) {
    id
    title
    author
    state
    choices
    scores
    scores_total
    start
    end
    created
    space { id }
  }
}`

const votesQuery = `query Votes($space: String!, $first: Int!, $createdGt: Int!) {
  votes(
    first: $first
    where: { space: $space, created_gt: $createdGt }
    orderBy: "created"
    orderDirection: asc
  ) {
    id
    voter
    created
    choice
    vp
    reason
    proposal { id }
    space { id }
  }
}`

// graphql posts a query and decodes its data into result.
func graphql[T any](ctx context.Context, c *Client, query string, vars map[string]any) (T, error) {
	var resp graphQLResponse[T]
	if err := c.post(ctx, "", graphQLRequest{Query: query, Variables: vars}, &resp); err != nil {
		return resp.Data, err
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, len(resp.Errors))
		for i, e := range resp.Errors {
			msgs[i] = e.Message
		}
		return resp.Data, fmt.Errorf("%s graphql error: %s", c.name, strings.Join(msgs, "; "))
	}
	return resp.Data, nil
}

// cursorToCreatedGt converts a stream cursor to the hub's created_gt filter.
func cursorToCreatedGt(cursor model.Cursor) (int64, error) {
	if cursor.IsZero() {
		return 0, nil
	}
	v, err := strconv.ParseInt(string(cursor), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cursor %q is not a creation timestamp: %w", cursor, err)
	}
	return v, nil
}

// HubSource serves proposals and votes of one space as cursor-driven
// pages, ascending by creation time.
type HubSource struct {
	client   *Client
	space    string
	pageSize int
}

// NewHubSource creates a HubSource.
func NewHubSource(client *Client, space string, pageSize int) *HubSource {
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &HubSource{
		client:   client,
		space:    space,
		pageSize: pageSize,
	}
}

// FetchProposals returns proposals created strictly after cursor. The hub
// has no continuation token, so NextCursor is always empty.
func (h *HubSource) FetchProposals(ctx context.Context, after model.Cursor) (model.Page[model.Proposal], error) {
	createdGt, err := cursorToCreatedGt(after)
	if err != nil {
		return model.Page[model.Proposal]{}, err
	}

	data, err := graphql[ProposalsData](ctx, h.client, proposalsQuery, map[string]any{
		"space":     h.space,
		"first":     h.pageSize,
		"createdGt": createdGt,
	})
	if err != nil {
		return model.Page[model.Proposal]{}, fmt.Errorf("get proposals: %w", err)
	}

	items := make([]model.Proposal, len(data.Proposals))
	for i, p := range data.Proposals {
		items[i] = p.ToModel()
	}
	return model.Page[model.Proposal]{Items: items}, nil
}

// FetchVotes returns votes created strictly after cursor.
func (h *HubSource) FetchVotes(ctx context.Context, after model.Cursor) (model.Page[model.Vote], error) {
	createdGt, err := cursorToCreatedGt(after)
	if err != nil {
		return model.Page[model.Vote]{}, err
	}

	data, err := graphql[VotesData](ctx, h.client, votesQuery, map[string]any{
		"space":     h.space,
		"first":     h.pageSize,
		"createdGt": createdGt,
	})
	if err != nil {
		return model.Page[model.Vote]{}, fmt.Errorf("get votes: %w", err)
	}

	items := make([]model.Vote, len(data.Votes))
	for i, v := range data.Votes {
		items[i] = v.ToModel()
	}
	return model.Page[model.Vote]{Items: items}, nil
}
