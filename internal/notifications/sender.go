package notifications

import (
	"context"

	"github.com/9ssi7/exponent"
)

// PushSender abstracts the push delivery channel. The only production
// implementation is the Expo adapter; tests substitute a recorder.
type PushSender interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
	PublishSingle(ctx context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error)
}

// TokenSource yields a user's registered device tokens.
type TokenSource interface {
	GetTokensByUserID(ctx context.Context, userID int64) ([]string, error)
}
