package api

import "encoding/json"

// graphQLRequest is the POST body of a GraphQL query.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse wraps the data and errors of a GraphQL response.
type graphQLResponse[T any] struct {
	Data   T              `json:"data"`
	Errors []GraphQLError `json:"errors"`
}

// GraphQLError is one entry of a GraphQL "errors" array.
type GraphQLError struct {
	Message string `json:"message"`
}

// ProposalsData is the data of the proposals query.
type ProposalsData struct {
	Proposals []APIProposal `json:"proposals"`
}

// APIProposal represents a proposal from the hub.
type APIProposal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	State       string    `json:"state"`
	Choices     []string  `json:"choices"`
	Scores      []float64 `json:"scores"`
	ScoresTotal float64   `json:"scores_total"`
	Start       int64     `json:"start"`
	End         int64     `json:"end"`
	Created     int64     `json:"created"`
	Space       APISpace  `json:"space"`
}

// VotesData is the data of the votes query.
type VotesData struct {
	Votes []APIVote `json:"votes"`
}

// APIVote represents a vote from the hub.
type APIVote struct {
	ID       string          `json:"id"`
	Voter    string          `json:"voter"`
	Created  int64           `json:"created"`
	Choice   json.RawMessage `json:"choice"`
	VP       float64         `json:"vp"`
	Reason   string          `json:"reason"`
	Proposal APIRef          `json:"proposal"`
	Space    APISpace        `json:"space"`
}

// APISpace is a nested space reference.
type APISpace struct {
	ID string `json:"id"`
}

// APIRef is a nested object reference.
type APIRef struct {
	ID string `json:"id"`
}

// TreasuryResponse from GET /treasury/{dao}
type TreasuryResponse struct {
	Name string             `json:"name"`
	TVL  []APITreasuryPoint `json:"tvl"`
}

// APITreasuryPoint is one daily treasury valuation.
type APITreasuryPoint struct {
	Date              int64   `json:"date"` // Unix seconds
	TotalLiquidityUSD float64 `json:"totalLiquidityUSD"`
}
