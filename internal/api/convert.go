package api

import (
	"time"

	"github.com/rickgao/dao-risk/internal/model"
)

// ToModel converts an APIProposal to a model.Proposal.
func (p APIProposal) ToModel() model.Proposal {
	return model.Proposal{
		ID:          p.ID,
		Space:       p.Space.ID,
		Title:       p.Title,
		Author:      p.Author,
		State:       p.State,
		Choices:     p.Choices,
		Scores:      p.Scores,
		ScoresTotal: p.ScoresTotal,
		Start:       p.Start,
		End:         p.End,
		Created:     p.Created,
	}
}

// ToModel converts an APIVote to a model.Vote.
func (v APIVote) ToModel() model.Vote {
	return model.Vote{
		ID:          v.ID,
		Space:       v.Space.ID,
		ProposalID:  v.Proposal.ID,
		Voter:       v.Voter,
		Choice:      v.Choice,
		VotingPower: v.VP,
		Reason:      v.Reason,
		Created:     v.Created,
	}
}

// ToModel converts an APITreasuryPoint to a model.Valuation keyed by UTC day.
func (p APITreasuryPoint) ToModel() model.Valuation {
	t := time.Unix(p.Date, 0).UTC()
	return model.Valuation{
		Date:     time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
		ValueUSD: p.TotalLiquidityUSD,
	}
}
