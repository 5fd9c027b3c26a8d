// Package archive keeps short-lived summaries of finished matches for
// operational inspection. Summaries expire on a TTL; the server never reads
// them back to restore game state.
package archive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cyberinferno/gamba-server/cacher"
	"github.com/cyberinferno/gamba-server/logger"
)

// Match end reasons.
const (
	ReasonWin     = "win"
	ReasonForfeit = "opponent_disconnect"
)

// MatchSummary is the record kept per finished match. Room ids restart on
// every server boot, so each summary gets its own uuid.
type MatchSummary struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Winner    string    `json:"winner"`
	Loser     string    `json:"loser"`
	Reason    string    `json:"reason"`
	Turns     int       `json:"turns"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Archive stores match summaries in a cache backend with a fixed TTL.
type Archive struct {
	cache  cacher.Cacher[MatchSummary]
	ttl    time.Duration
	logger logger.Logger
}

// New returns an archive over the given cache backend.
func New(cache cacher.Cacher[MatchSummary], ttl time.Duration, log logger.Logger) *Archive {
	return &Archive{
		cache:  cache,
		ttl:    ttl,
		logger: log.With(logger.Field{Key: "component", Value: "archive"}),
	}
}

// Record stores the summary, assigning an id when the caller left it empty,
// and returns the stored summary. Failures are logged and swallowed; the
// archive never blocks game flow.
func (a *Archive) Record(ctx context.Context, s MatchSummary) MatchSummary {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.EndedAt.IsZero() {
		s.EndedAt = time.Now()
	}

	_, err := a.cache.GetOrFetch(ctx, s.ID, a.ttl, func(ctx context.Context) (MatchSummary, error) {
		return s, nil
	})
	if err != nil {
		a.logger.Error("failed to store match summary",
			logger.Field{Key: "match_id", Value: s.ID},
			logger.Field{Key: "error", Value: err})
		return s
	}

	a.logger.Info("match archived",
		logger.Field{Key: "match_id", Value: s.ID},
		logger.Field{Key: "room", Value: s.Room},
		logger.Field{Key: "winner", Value: s.Winner},
		logger.Field{Key: "reason", Value: s.Reason},
		logger.Field{Key: "turns", Value: s.Turns})
	return s
}

// Len returns the number of live summaries.
func (a *Archive) Len(ctx context.Context) int {
	n, err := a.cache.ItemCount(ctx)
	if err != nil {
		a.logger.Error("failed to count match summaries", logger.Field{Key: "error", Value: err})
		return 0
	}

	return n
}
