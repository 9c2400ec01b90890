// Package notify implements the notification gateway.  Delivery is
// fire-and-forget by contract: a failed notification must never roll
// back or block the state transition that triggered it, so every error
// on this path is logged and swallowed.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/library-space-reservation/internal/queue"
)

// TokenLookup resolves a user's registered device token; "" means the
// user never registered one.
type TokenLookup interface {
	DeviceToken(ctx context.Context, userID string) (string, error)
}

// Gateway queues notifications for users with a registered device
// token.  Users without one are skipped silently.
type Gateway struct {
	users TokenLookup
	log   *zap.SugaredLogger
}

// NewGateway returns a Gateway backed by the given token lookup.
func NewGateway(users TokenLookup) *Gateway {
	return &Gateway{users: users, log: zap.S()}
}

// Notify looks up the user's device token and enqueues the message on
// the broker.  It never returns an error.
func (g *Gateway) Notify(ctx context.Context, userID, title, body string) {
	token, err := g.users.DeviceToken(ctx, userID)
	if err != nil {
		g.log.Warnw("notify: device token lookup failed", "user_id", userID, "error", err)
		return
	}
	if token == "" {
		g.log.Debugw("notify: no device token registered", "user_id", userID)
		return
	}
	msg := queue.NotificationMessage{
		UserID:      userID,
		DeviceToken: token,
		Title:       title,
		Body:        body,
		QueuedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := queue.PublishNotification(ctx, msg); err != nil {
		g.log.Warnw("notify: enqueue failed", "user_id", userID, "error", err)
		return
	}
	g.log.Infow("notification queued", "user_id", userID, "title", title)
}
