package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/OgbonnaBlessed/passion-streams/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// sender is the subset of *messaging.Client the notifier needs.
type sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// UserLookup resolves the device token of a user.
type UserLookup interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Client sends push notifications to a user's registered device.
type Client struct {
	msgClient sender
	users     UserLookup
	logger    *zap.Logger
}

func NewClient(ctx context.Context, users UserLookup, logger *zap.Logger, credentialsFile string) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	} else {
		logger.Warn("No Firebase credentials file provided. FCM will utilize environment variable GOOGLE_APPLICATION_CREDENTIALS or default credentials.")
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	msgClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	return newClient(msgClient, users, logger), nil
}

func newClient(s sender, users UserLookup, logger *zap.Logger) *Client {
	return &Client{
		msgClient: s,
		users:     users,
		logger:    logger,
	}
}

// Notify implements domain.Notifier. Users without a device token are skipped.
func (c *Client) Notify(ctx context.Context, userID uuid.UUID, title, body string, data map[string]string) error {
	user, err := c.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup push recipient: %w", err)
	}
	if user.FCMToken == nil || *user.FCMToken == "" {
		return nil
	}
	return c.Send(ctx, *user.FCMToken, title, body, data)
}

func (c *Client) Send(ctx context.Context, token string, title, body string, data map[string]string) error {
	if token == "" {
		return nil // No token, skip
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	_, err := c.msgClient.Send(ctx, message)
	if err != nil {
		c.logger.Error("Failed to send FCM message", zap.String("user_token_suffix", tokenSuffix(token)), zap.Error(err))
		return err
	}
	return nil
}

func tokenSuffix(token string) string {
	if len(token) <= 6 {
		return token
	}
	return token[len(token)-6:]
}
