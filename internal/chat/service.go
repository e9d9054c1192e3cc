package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"roomchatgo/internal/store"
)

// IChatService is the message-handling pipeline behind both the socket and
// the REST surface.
type IChatService interface {
	// HandleMessage runs the full inbound path for one socket frame:
	// validate → rate limit → persist → cache → broadcast (echo included).
	// Persist strictly precedes broadcast, so a client that reconnects right
	// after seeing a live message always finds it in history.
	HandleMessage(ctx context.Context, roomID, sender string, in Inbound) (MessageView, error)

	// Recent serves the connect-time history page, newest-first. When the
	// cache is cold (fresh process) it reads through to the durable store.
	Recent(ctx context.Context, roomID string, limit int) ([]MessageView, error)

	// ListBefore pages the durable store; items come back ascending with the
	// cursor for the next (older) page, nil when the page is empty.
	ListBefore(ctx context.Context, roomID string, limit int, beforeID string) ([]MessageView, *string, error)

	// CreateMessage is the REST create: validate and persist only — no rate
	// limit, no broadcast.
	CreateMessage(ctx context.Context, roomID string, in Inbound) (MessageView, error)

	Online(ctx context.Context, roomID string) ([]string, error)
}

type chatService struct {
	limiter  RateLimiter
	history  HistoryStore
	store    store.IMessageStore
	engine   *BroadcastEngine
	presence PresenceTracker
	now      func() time.Time
}

func NewChatService(
	limiter RateLimiter,
	history HistoryStore,
	st store.IMessageStore,
	engine *BroadcastEngine,
	presence PresenceTracker,
) IChatService {
	return &chatService{
		limiter:  limiter,
		history:  history,
		store:    st,
		engine:   engine,
		presence: presence,
		now:      time.Now,
	}
}

func (s *chatService) HandleMessage(ctx context.Context, roomID, sender string, in Inbound) (MessageView, error) {
	username := CleanUsername(in.Username)
	content := CleanContent(in.Content)
	if content == "" {
		return MessageView{}, ErrEmptyContent
	}

	ok, err := s.limiter.Admit(ctx, roomID, sender)
	if err != nil {
		// A broken limiter backend must not take the chat down; admit and log.
		zap.L().Warn("ratelimit.admit", zap.String("room", roomID), zap.Error(err))
	} else if !ok {
		return MessageView{}, ErrRateLimited
	}

	msg := Message{
		Room:      roomID,
		Username:  username,
		Content:   content,
		Avatar:    in.Avatar,
		CreatedAt: s.now().UTC(),
	}

	// Persistence must succeed before anything is delivered; a failed insert
	// aborts this one message and leaves no trace in the cache.
	id, err := s.store.Insert(ctx, msg.Room, msg.Username, msg.Content, msg.Avatar, msg.CreatedAt)
	if err != nil {
		return MessageView{}, err
	}
	msg.ID = id

	// The cache is reconstructable from the store, so an append failure is
	// logged and delivery continues.
	if err := s.history.Append(ctx, msg); err != nil {
		zap.L().Warn("history.append", zap.String("room", roomID), zap.Error(err))
	}

	view := msg.View()
	s.engine.Publish(roomID, NewMessageFrame(view))
	return view, nil
}

func (s *chatService) Recent(ctx context.Context, roomID string, limit int) ([]MessageView, error) {
	msgs, err := s.history.Recent(ctx, roomID, limit)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		// Cold cache: the window is not durable, the store is.
		recs, err := s.store.ListBefore(ctx, roomID, limit, "")
		if err != nil {
			return nil, err
		}
		return recordViews(recs), nil
	}
	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, m.View())
	}
	return views, nil
}

func (s *chatService) ListBefore(ctx context.Context, roomID string, limit int, beforeID string) ([]MessageView, *string, error) {
	recs, err := s.store.ListBefore(ctx, roomID, limit, beforeID)
	if err != nil {
		return nil, nil, err
	}

	// Store order is newest-first; the page is served ascending, and the
	// oldest entry's id is the cursor for the next page back.
	views := recordViews(recs)
	for i, j := 0, len(views)-1; i < j; i, j = i+1, j-1 {
		views[i], views[j] = views[j], views[i]
	}
	var next *string
	if len(views) > 0 {
		next = &views[0].ID
	}
	return views, next, nil
}

func (s *chatService) CreateMessage(ctx context.Context, roomID string, in Inbound) (MessageView, error) {
	username := CleanUsername(in.Username)
	content := CleanContent(in.Content)
	if content == "" {
		return MessageView{}, ErrEmptyContent
	}

	msg := Message{
		Room:      roomID,
		Username:  username,
		Content:   content,
		Avatar:    in.Avatar,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.store.Insert(ctx, msg.Room, msg.Username, msg.Content, msg.Avatar, msg.CreatedAt)
	if err != nil {
		return MessageView{}, err
	}
	msg.ID = id
	return msg.View(), nil
}

func (s *chatService) Online(ctx context.Context, roomID string) ([]string, error) {
	return s.presence.Online(ctx, roomID)
}

func recordViews(recs []store.Record) []MessageView {
	views := make([]MessageView, 0, len(recs))
	for _, r := range recs {
		views = append(views, Message{
			ID:        r.ID,
			Room:      r.Room,
			Username:  r.Username,
			Content:   r.Content,
			Avatar:    r.Avatar,
			CreatedAt: r.CreatedAt,
		}.View())
	}
	return views
}
