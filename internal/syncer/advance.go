package syncer

import "github.com/rickgao/dao-risk/internal/model"

// AdvanceCursor returns the proposal cursor after a page of proposals sorted
// ascending by creation time.
//
//   - no open (pending/active) proposal: the last proposal's creation time
//   - first proposal open: current, unchanged
//   - otherwise: the creation time of the proposal just before the first
//     open one
//
// An empty page leaves the cursor unchanged.
func AdvanceCursor(current model.Cursor, proposals []model.Proposal) model.Cursor {
	if len(proposals) == 0 {
		return current
	}

	for i, p := range proposals {
		if !p.IsOpen() {
			continue
		}
		if i == 0 {
			return current
		}
		return model.CursorFromTime(proposals[i-1].Created)
	}

	return model.CursorFromTime(proposals[len(proposals)-1].Created)
}

// nextVoteCursor returns the vote cursor after a page: the provider's
// explicit marker when present, otherwise the last vote's creation time.
func nextVoteCursor(current model.Cursor, page model.Page[model.Vote]) model.Cursor {
	if !page.NextCursor.IsZero() {
		return page.NextCursor
	}
	if len(page.Items) == 0 {
		return current
	}
	return model.CursorFromTime(page.Items[len(page.Items)-1].Created)
}
