package mutation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRetention is how many recent mutations are kept per board for
// client resync. A client further behind than this must reload the board.
const DefaultRetention = 256

// ErrTooFarBehind tells a resyncing client its last-seen sequence number has
// been trimmed out of the retained window and a full reload is required.
var ErrTooFarBehind = errors.New("mutation: requested sequence no longer retained, reload required")

// Log assigns per-board sequence numbers and retains a capped window of
// recent mutations in Redis. Sequence numbers come from an atomic INCR;
// callers serialize Record per board with a BoardLocker so the retained list
// stays in sequence order and acceptance order matches sequence order.
type Log struct {
	rdb    *redis.Client
	retain int64
	logger *zap.SugaredLogger
}

func NewLog(rdb *redis.Client, retain int64, logger *zap.Logger) *Log {
	if retain <= 0 {
		retain = DefaultRetention
	}
	return &Log{rdb: rdb, retain: retain, logger: logger.Sugar()}
}

func seqKey(boardID uuid.UUID) string {
	return "board:" + boardID.String() + ":seq"
}

func logKey(boardID uuid.UUID) string {
	return "board:" + boardID.String() + ":mutations"
}

// Record stamps m with the board's next sequence number and appends it to
// the retained window. The returned mutation carries the assigned Seq.
func (l *Log) Record(ctx context.Context, boardID uuid.UUID, m Mutation) (Mutation, error) {
	seq, err := l.rdb.Incr(ctx, seqKey(boardID)).Result()
	if err != nil {
		return Mutation{}, fmt.Errorf("assign sequence for board %s: %w", boardID, err)
	}
	m.Seq = seq
	m.BoardID = boardID

	payload, err := json.Marshal(m)
	if err != nil {
		return Mutation{}, fmt.Errorf("marshal mutation: %w", err)
	}

	pipe := l.rdb.TxPipeline()
	pipe.RPush(ctx, logKey(boardID), payload)
	pipe.LTrim(ctx, logKey(boardID), -l.retain, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return Mutation{}, fmt.Errorf("append mutation %d for board %s: %w", seq, boardID, err)
	}

	l.logger.Debugw("Mutation recorded",
		"board_id", boardID,
		"seq", seq,
		"kind", m.Kind,
	)
	return m, nil
}

// Since returns every retained mutation with sequence number greater than
// seq, in ascending order. ErrTooFarBehind is returned when the window no
// longer reaches back to seq.
func (l *Log) Since(ctx context.Context, boardID uuid.UUID, seq int64) ([]Mutation, error) {
	entries, err := l.rdb.LRange(ctx, logKey(boardID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read mutations for board %s: %w", boardID, err)
	}

	if len(entries) == 0 {
		head, err := l.Head(ctx, boardID)
		if err != nil {
			return nil, err
		}
		if head > seq {
			return nil, ErrTooFarBehind
		}
		return nil, nil
	}

	var first Mutation
	if err := json.Unmarshal([]byte(entries[0]), &first); err != nil {
		return nil, fmt.Errorf("decode mutation: %w", err)
	}
	if first.Seq > seq+1 {
		return nil, ErrTooFarBehind
	}

	out := make([]Mutation, 0, len(entries))
	for _, raw := range entries {
		var m Mutation
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode mutation: %w", err)
		}
		if m.Seq > seq {
			out = append(out, m)
		}
	}
	return out, nil
}

// Head returns the board's latest assigned sequence number, 0 when the board
// has never been mutated.
func (l *Log) Head(ctx context.Context, boardID uuid.UUID) (int64, error) {
	head, err := l.rdb.Get(ctx, seqKey(boardID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence head for board %s: %w", boardID, err)
	}
	return head, nil
}
