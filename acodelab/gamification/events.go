package gamification

import (
	"context"
	"log/slog"
	"time"
)

// maxAwardDepth bounds re-entry through reward payouts. An award can
// unlock an achievement whose reward is itself an award; that second award
// runs the capped listeners once more and then stops, so a reward can
// never cascade further than one unlock deep.
const maxAwardDepth = 2

// PointsEvent describes one applied ledger entry, after the totals moved.
type PointsEvent struct {
	UserID     string
	Action     string
	PCChange   int64
	PConChange int64
	PCTotal    int64
	PConTotal  int64
	Depth      int
	OccurredAt time.Time
}

// PointsListener reacts to an applied award. Listener errors are logged
// and swallowed: a failed side effect never rolls back the ledger entry
// that triggered it.
type PointsListener interface {
	HandlePoints(ctx context.Context, event PointsEvent) error
}

// PointsListenerFunc adapts a function to PointsListener.
type PointsListenerFunc func(ctx context.Context, event PointsEvent) error

func (f PointsListenerFunc) HandlePoints(ctx context.Context, event PointsEvent) error {
	return f(ctx, event)
}

// DepthCapped wraps a listener so it stops reacting once an award chain
// reaches maxAwardDepth. Listeners that pay out further awards wrap
// themselves in it; listeners that only read the event run at every depth.
func DepthCapped(l PointsListener) PointsListener {
	return PointsListenerFunc(func(ctx context.Context, event PointsEvent) error {
		if event.Depth >= maxAwardDepth {
			slog.Debug("Award depth limit reached, skipping listener",
				slog.String("type", "award"),
				slog.String("user_id", event.UserID),
				slog.String("action", event.Action),
				slog.Int("depth", event.Depth))
			return nil
		}
		return l.HandlePoints(ctx, event)
	})
}
