package match

import "github.com/tiwa-codes/scripture-sync/core"

// MatchMonitor provides hooks to observe the resolution pipeline.
// Implement this interface to track intermediate steps during a match.
type MatchMonitor interface {
	Start(query string)
	CitationHit(verse *core.Verse)
	AfterCandidateSelection(count int, semantic bool)
	CandidateScored(verse *core.Verse, score float64)
	Finish(result *core.MatchResult)
}

// noopMonitor is a no-op implementation of MatchMonitor
type noopMonitor struct{}

var _ MatchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                           {}
func (n *noopMonitor) CitationHit(_ *core.Verse)                {}
func (n *noopMonitor) AfterCandidateSelection(_ int, _ bool)    {}
func (n *noopMonitor) CandidateScored(_ *core.Verse, _ float64) {}
func (n *noopMonitor) Finish(_ *core.MatchResult)               {}
