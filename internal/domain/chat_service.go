package domain

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultAdminWindow = time.Hour
	chatListLimit      = 50
	notifyPreviewLen   = 120
)

type ChatService struct {
	repo        ChatRepository
	users       UserRepository
	events      EventPublisher
	notifier    Notifier
	logger      *zap.Logger
	adminWindow time.Duration
	now         func() time.Time
	sendLocks   *keyedMutex
	openLocks   *keyedMutex
}

func NewChatService(repo ChatRepository, users UserRepository, adminWindow time.Duration, logger *zap.Logger) *ChatService {
	if adminWindow <= 0 {
		adminWindow = DefaultAdminWindow
	}
	return &ChatService{
		repo:        repo,
		users:       users,
		events:      noopPublisher{},
		logger:      logger,
		adminWindow: adminWindow,
		now:         time.Now,
		sendLocks:   newKeyedMutex(),
		openLocks:   newKeyedMutex(),
	}
}

// SetEventPublisher wires the realtime transport. It must be called before
// the service handles traffic.
func (s *ChatService) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	s.events = p
}

func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetClock overrides the time source.
func (s *ChatService) SetClock(now func() time.Time) {
	s.now = now
}

// OpenChat returns the two-party chat between userID and targetID, creating
// it on first use.
func (s *ChatService) OpenChat(ctx context.Context, userID, targetID uuid.UUID) (*Chat, error) {
	if userID == targetID {
		return nil, ErrSelfTarget
	}
	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return nil, err
	}

	unlock := s.openLocks.Lock(pairKey(userID, targetID))
	defer unlock()

	chat, err := s.repo.FindDirectChat(ctx, userID, targetID)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return s.repo.CreateChat(ctx, []uuid.UUID{userID, targetID})
}

// ListChats returns the caller's chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]*Chat, error) {
	chats, err := s.repo.GetChatsByUserID(ctx, userID, chatListLimit)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := chats[:0]
	for _, chat := range chats {
		if chat.AdminDue(now) {
			fresh, err := s.ExpireAdminIfDue(ctx, chat.ID)
			if err != nil {
				return nil, err
			}
			if !fresh.HasParticipant(userID) {
				continue
			}
			chat = fresh
		}
		out = append(out, chat)
	}
	return out, nil
}

// ListAdminChats returns the chats where adminID currently holds an open
// admin window. Windows that have passed are expired on the way.
func (s *ChatService) ListAdminChats(ctx context.Context, adminID uuid.UUID) ([]*Chat, error) {
	chats, err := s.repo.GetChatsByActiveAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := chats[:0]
	for _, chat := range chats {
		if chat.AdminDue(now) {
			if _, err := s.ExpireAdminIfDue(ctx, chat.ID); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, chat)
	}
	return out, nil
}

// SendMessage appends a message from senderID. The append, the participant
// check and the lastMessage/lastActivityAt update commit together, and the
// new-message event is published before the next send on the same chat can
// start.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content, msgType string) (*ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	mt, err := ParseMessageType(msgType)
	if err != nil {
		return nil, err
	}

	unlock := s.sendLocks.Lock(chatID.String())
	defer unlock()

	if _, err := s.ExpireAdminIfDue(ctx, chatID); err != nil {
		return nil, err
	}

	var recipients []uuid.UUID
	msg := &ChatMessage{
		ID:        uuid.New(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Type:      mt,
		CreatedAt: s.now().UTC(),
	}
	saved, err := s.repo.AppendMessage(ctx, chatID, msg, func(chat *Chat) error {
		if !chat.HasParticipant(senderID) {
			return ErrNotParticipant
		}
		for _, p := range chat.Participants {
			if p != senderID {
				recipients = append(recipients, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.MessageSent(ctx, saved)
	s.notifyRecipients(saved, recipients)
	return saved, nil
}

// ListMessages returns every message of the chat in chronological order.
func (s *ChatService) ListMessages(ctx context.Context, chatID, requesterID uuid.UUID) ([]*ChatMessage, error) {
	chat, err := s.ExpireAdminIfDue(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requesterID) {
		return nil, ErrNotParticipant
	}
	return s.repo.GetMessages(ctx, chatID)
}

// IsParticipant is used by the transport when strict room joins are enabled.
func (s *ChatService) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	chat, err := s.ExpireAdminIfDue(ctx, chatID)
	if err != nil {
		return false, err
	}
	return chat.HasParticipant(userID), nil
}

// InviteAdmin brings an admin into the chat for the configured window.
// Inviting while an admin window is open is a no-op.
func (s *ChatService) InviteAdmin(ctx context.Context, chatID, requesterID uuid.UUID) (*Chat, error) {
	chat, err := s.ExpireAdminIfDue(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requesterID) {
		return nil, ErrNotParticipant
	}

	admin, err := s.users.FindAvailableAdmin(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoAdminAvailable
		}
		return nil, err
	}

	exitsAt := s.now().UTC().Add(s.adminWindow)
	added := false
	updated, err := s.repo.UpdateChat(ctx, chatID, func(c *Chat) error {
		if !c.HasParticipant(requesterID) {
			return ErrNotParticipant
		}
		if !c.AddAdmin(admin.ID, exitsAt) {
			return ErrNoChange
		}
		added = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added {
		s.logger.Info("admin joined chat",
			zap.String("chat_id", chatID.String()),
			zap.String("admin_id", admin.ID.String()),
			zap.Time("exits_at", exitsAt),
		)
		s.events.AdminJoined(ctx, AdminEvent{ChatID: chatID, AdminID: admin.ID, AdminExitsAt: &exitsAt})
	}
	return updated, nil
}

// RemoveAdmin ends the admin window early. Any participant, including the
// admin, may call it; without an open window it is a no-op.
func (s *ChatService) RemoveAdmin(ctx context.Context, chatID, requesterID uuid.UUID) (*Chat, error) {
	removed := uuid.Nil
	chat, err := s.repo.UpdateChat(ctx, chatID, func(c *Chat) error {
		if !c.HasParticipant(requesterID) {
			return ErrNotParticipant
		}
		removed = c.RemoveAdmin()
		if removed == uuid.Nil {
			return ErrNoChange
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed != uuid.Nil {
		s.events.AdminLeft(ctx, AdminEvent{ChatID: chatID, AdminID: removed})
	}
	return chat, nil
}

// ExpireAdminIfDue closes the admin window once adminExitsAt has passed. It
// is idempotent and safe to call from any access path or the sweeper.
func (s *ChatService) ExpireAdminIfDue(ctx context.Context, chatID uuid.UUID) (*Chat, error) {
	chat, err := s.repo.GetChatByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !chat.AdminDue(now) {
		return chat, nil
	}

	removed := uuid.Nil
	chat, err = s.repo.UpdateChat(ctx, chatID, func(c *Chat) error {
		if !c.AdminDue(now) {
			return ErrNoChange
		}
		removed = c.RemoveAdmin()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed != uuid.Nil {
		s.logger.Info("admin window expired",
			zap.String("chat_id", chatID.String()),
			zap.String("admin_id", removed.String()),
		)
		s.events.AdminLeft(ctx, AdminEvent{ChatID: chatID, AdminID: removed})
	}
	return chat, nil
}

// SweepExpiredAdmins expires every chat whose admin window has passed and
// returns how many chats it touched.
func (s *ChatService) SweepExpiredAdmins(ctx context.Context) (int, error) {
	ids, err := s.repo.GetChatIDsWithExpiredAdmin(ctx, s.now())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		if _, err := s.ExpireAdminIfDue(ctx, id); err != nil {
			s.logger.Warn("admin expiry failed", zap.String("chat_id", id.String()), zap.Error(err))
			continue
		}
		n++
	}
	return n, nil
}

// StartAdminSweeper runs SweepExpiredAdmins on every tick until ctx is done.
func (s *ChatService) StartAdminSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.SweepExpiredAdmins(ctx); err != nil && ctx.Err() == nil {
					s.logger.Error("admin sweep failed", zap.Error(err))
				}
			}
		}
	}()
}

func (s *ChatService) notifyRecipients(msg *ChatMessage, recipients []uuid.UUID) {
	if s.notifier == nil || len(recipients) == 0 {
		return
	}

	body := msg.Content
	if msg.Type != MessageTypeText {
		body = "Sent an attachment"
	} else if utf8.RuneCountInString(body) > notifyPreviewLen {
		body = string([]rune(body)[:notifyPreviewLen]) + "…"
	}
	data := map[string]string{
		"type":    "message",
		"chat_id": msg.ChatID.String(),
	}

	go func() {
		for _, userID := range recipients {
			if err := s.notifier.Notify(context.Background(), userID, "New message", body, data); err != nil {
				s.logger.Warn("push notification failed", zap.String("user_id", userID.String()), zap.Error(err))
			}
		}
	}()
}

// pairKey is the same for (a, b) and (b, a).
func pairKey(a, b uuid.UUID) string {
	as, bs := a.String(), b.String()
	if as > bs {
		as, bs = bs, as
	}
	return as + ":" + bs
}
