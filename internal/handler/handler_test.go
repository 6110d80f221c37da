package handler

import (
	"context"
	"sync"

	"taskboard/internal/access"
	"taskboard/internal/middleware"
	"taskboard/internal/model"
	"taskboard/internal/mutation"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// authed stamps a fixed identity onto every request, standing in for the
// JWT middleware.
func authed(userID uuid.UUID, email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Set(middleware.UserEmailKey, email)
		c.Next()
	}
}

// stubGuard returns a fixed access outcome.
type stubGuard struct {
	acc access.Access
	err error
}

func (g *stubGuard) Resolve(ctx context.Context, userID, boardID uuid.UUID) (access.Access, error) {
	return g.acc, g.err
}

func guardFor(role model.Role) *stubGuard {
	return &stubGuard{acc: access.Access{Role: role, Permissions: access.PermissionsFor(role)}}
}

// memoryRecorder is an in-process stand-in for the redis-backed log.
type memoryRecorder struct {
	mu       sync.Mutex
	seqs     map[uuid.UUID]int64
	recorded []mutation.Mutation
	sinceErr error
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{seqs: make(map[uuid.UUID]int64)}
}

func (r *memoryRecorder) Record(ctx context.Context, boardID uuid.UUID, m mutation.Mutation) (mutation.Mutation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs[boardID]++
	m.Seq = r.seqs[boardID]
	r.recorded = append(r.recorded, m)
	return m, nil
}

func (r *memoryRecorder) Since(ctx context.Context, boardID uuid.UUID, seq int64) ([]mutation.Mutation, error) {
	if r.sinceErr != nil {
		return nil, r.sinceErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []mutation.Mutation
	for _, m := range r.recorded {
		if m.BoardID == boardID && m.Seq > seq {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memoryRecorder) Head(ctx context.Context, boardID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seqs[boardID], nil
}

type publishedEvent struct {
	boardID uuid.UUID
	origin  string
	ev      realtime.Event
}

// captureRelay records every publish instead of fanning out.
type captureRelay struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *captureRelay) Publish(boardID uuid.UUID, originSessionID string, ev realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{boardID: boardID, origin: originSessionID, ev: ev})
}

// captureActivity collects activity rows in memory.
type captureActivity struct {
	mu      sync.Mutex
	entries []model.ActivityLog
}

func (a *captureActivity) Create(ctx context.Context, entry *model.ActivityLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *entry)
	return nil
}

func (a *captureActivity) ListByBoard(ctx context.Context, boardID uuid.UUID, limit int) ([]model.ActivityLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries, nil
}

func newTestSync() (*BoardSync, *memoryRecorder, *captureRelay, *captureActivity) {
	rec := newMemoryRecorder()
	relay := &captureRelay{}
	activity := &captureActivity{}
	sync := &BoardSync{
		Locker:   mutation.NewBoardLocker(),
		Log:      rec,
		Relay:    relay,
		Activity: activity,
		Logger:   zap.NewNop(),
	}
	return sync, rec, relay, activity
}

// Fakes below embed their interface so only the methods a test stubs need
// implementations; calling anything else panics, which is the point.

type fakeListStore struct {
	ListStore
	getByID      func(ctx context.Context, id uuid.UUID) (*model.List, error)
	getByBoardID func(ctx context.Context, boardID uuid.UUID) ([]model.List, error)
	create       func(ctx context.Context, list *model.List, reorder []repository.PositionUpdate) error
	move         func(ctx context.Context, listID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error
	deleteFn     func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeListStore) GetByID(ctx context.Context, id uuid.UUID) (*model.List, error) {
	return f.getByID(ctx, id)
}

func (f *fakeListStore) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.List, error) {
	return f.getByBoardID(ctx, boardID)
}

func (f *fakeListStore) Create(ctx context.Context, list *model.List, reorder []repository.PositionUpdate) error {
	return f.create(ctx, list, reorder)
}

func (f *fakeListStore) Move(ctx context.Context, listID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error {
	return f.move(ctx, listID, newPosition, reorder)
}

func (f *fakeListStore) Delete(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

type fakeCardStore struct {
	CardStore
	getByID     func(ctx context.Context, id uuid.UUID) (*model.Card, error)
	getByListID func(ctx context.Context, listID uuid.UUID) ([]model.Card, error)
	create      func(ctx context.Context, card *model.Card, reorder []repository.PositionUpdate) error
	move        func(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error
	deleteFn    func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeCardStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Card, error) {
	return f.getByID(ctx, id)
}

func (f *fakeCardStore) GetByListID(ctx context.Context, listID uuid.UUID) ([]model.Card, error) {
	return f.getByListID(ctx, listID)
}

func (f *fakeCardStore) Create(ctx context.Context, card *model.Card, reorder []repository.PositionUpdate) error {
	return f.create(ctx, card, reorder)
}

func (f *fakeCardStore) Move(ctx context.Context, cardID, targetListID uuid.UUID, newPosition int, reorder []repository.PositionUpdate) error {
	return f.move(ctx, cardID, targetListID, newPosition, reorder)
}

func (f *fakeCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	return f.deleteFn(ctx, id)
}

type fakeInvitationStore struct {
	InvitationStore
	getByToken func(ctx context.Context, token string) (*model.BoardInvitation, error)
	accept     func(ctx context.Context, invitationID, userID uuid.UUID) (*model.BoardMember, error)
	update     func(ctx context.Context, inv *model.BoardInvitation) error
}

func (f *fakeInvitationStore) GetByToken(ctx context.Context, token string) (*model.BoardInvitation, error) {
	return f.getByToken(ctx, token)
}

func (f *fakeInvitationStore) Accept(ctx context.Context, invitationID, userID uuid.UUID) (*model.BoardMember, error) {
	return f.accept(ctx, invitationID, userID)
}

func (f *fakeInvitationStore) Update(ctx context.Context, inv *model.BoardInvitation) error {
	return f.update(ctx, inv)
}

type fakeBoardStore struct {
	BoardStore
	getByID func(ctx context.Context, id uuid.UUID) (*model.Board, error)
}

func (f *fakeBoardStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	return f.getByID(ctx, id)
}

type fakeMemberStore struct {
	MemberStore
	getActive func(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error)
	update    func(ctx context.Context, member *model.BoardMember) error
}

func (f *fakeMemberStore) GetActive(ctx context.Context, boardID, userID uuid.UUID) (*model.BoardMember, error) {
	return f.getActive(ctx, boardID, userID)
}

func (f *fakeMemberStore) Update(ctx context.Context, member *model.BoardMember) error {
	return f.update(ctx, member)
}

type fakeNotificationStore struct {
	NotificationStore
	create func(ctx context.Context, n *model.Notification) error
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *model.Notification) error {
	if f.create == nil {
		return nil
	}
	return f.create(ctx, n)
}
