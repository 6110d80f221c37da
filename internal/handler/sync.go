package handler

import (
	"context"

	"taskboard/internal/model"
	"taskboard/internal/mutation"
	"taskboard/internal/realtime"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BoardSync bundles everything an accepted structural mutation walks through
// after its storage transaction commits: the mutation log, the realtime relay
// and the activity trail. Lock serializes concurrent mutations on the same
// board so log order matches storage order.
type BoardSync struct {
	Locker   Locker
	Log      Recorder
	Relay    Publisher
	Activity ActivityStore
	Logger   *zap.Logger
}

func (s *BoardSync) Lock(boardID uuid.UUID) func() {
	return s.Locker.Lock(boardID)
}

// Accepted records m, fans the matching event out to every subscriber except
// the originating session, and appends the activity row. The mutation is
// already durable at this point, so log/relay/activity failures are logged
// and swallowed rather than surfaced to the caller.
func (s *BoardSync) Accepted(ctx context.Context, origin string, m mutation.Mutation, evType realtime.EventType, payload any, entry *model.ActivityLog) {
	recorded, err := s.Log.Record(ctx, m.BoardID, m)
	if err != nil {
		s.Logger.Error("failed to record board mutation",
			zap.String("board_id", m.BoardID.String()),
			zap.String("kind", string(m.Kind)),
			zap.Error(err))
	} else {
		m = recorded
	}

	s.Relay.Publish(m.BoardID, origin, realtime.Event{
		Type:    evType,
		BoardID: m.BoardID,
		Seq:     m.Seq,
		Payload: payload,
	})

	if entry != nil {
		if err := s.Activity.Create(ctx, entry); err != nil {
			s.Logger.Error("failed to write activity entry",
				zap.String("board_id", entry.BoardID.String()),
				zap.Error(err))
		}
	}
}
