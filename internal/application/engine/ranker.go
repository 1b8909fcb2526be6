package engine

import (
	"errors"
	"sort"
	"time"

	"github.com/alejandrodnm/stockbot/internal/domain"
	"github.com/alejandrodnm/stockbot/internal/indicator"
)

// ErrInsufficientUniverse signals that fewer symbols are ready than
// top_rank+bot_rank. The returned snapshot is still populated (and marked
// Partial); the caller's policy decides whether to use it or skip the bar.
var ErrInsufficientUniverse = errors.New("engine: fewer ready symbols than top_rank+bot_rank")

// Rank orders the ready universe by ADX descending, ties broken by symbol
// so rankings are reproducible, and splits it into the trending (top) and
// oscillating (bottom) buckets. Non-ready symbols never reach this point;
// the tracker already excluded them.
func Rank(ts time.Time, snaps []indicator.Snapshot, topRank, botRank int) (domain.RankSnapshot, error) {
	entries := make([]domain.RankEntry, 0, len(snaps))
	for _, s := range snaps {
		entries = append(entries, domain.RankEntry{
			Symbol:  s.Symbol,
			ADX:     s.ADX,
			PlusDI:  s.PlusDI,
			MinusDI: s.MinusDI,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ADX != entries[j].ADX {
			return entries[i].ADX > entries[j].ADX
		}
		return entries[i].Symbol < entries[j].Symbol
	})

	snap := domain.RankSnapshot{Timestamp: ts, Entries: entries}

	top := topRank
	if top > len(entries) {
		top = len(entries)
	}
	snap.Top = entries[:top]

	bot := botRank
	if rest := len(entries) - top; bot > rest {
		bot = rest
	}
	snap.Bot = entries[len(entries)-bot:]

	if len(entries) < topRank+botRank {
		snap.Partial = true
		return snap, ErrInsufficientUniverse
	}
	return snap, nil
}
