package notifications

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"

	"github.com/9ssi7/exponent"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartNotifier pushes the informational "added to cart" event. It is wired
// into the cart service as a fire-and-forget listener: every error here is
// logged by the caller and never rolls back the cart mutation.
type CartNotifier struct {
	push   PushSender
	tokens TokenSource
	logger *zap.SugaredLogger
}

func NewCartNotifier(push PushSender, tokens TokenSource, logger *zap.SugaredLogger) *CartNotifier {
	return &CartNotifier{push: push, tokens: tokens, logger: logger}
}

var _ carts.Notifier = (*CartNotifier)(nil)

// CartItemAdded sends one push per registered device. A user without
// registered devices is a quiet no-op.
func (n *CartNotifier) CartItemAdded(ctx context.Context, userID int64, line carts.CartLine) error {
	tokens, err := n.tokens.GetTokensByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return nil
	}

	body := fmt.Sprintf("%s is in your cart", line.ProductName)
	if !line.Variant.IsZero() {
		body = fmt.Sprintf("%s (%s) is in your cart", line.ProductName, line.Variant)
	}

	eventID := uuid.NewString()
	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: "Added to cart",
			Body:  body,
			Data: map[string]string{
				"type":        "cart",
				"event":       "item_added",
				"eventId":     eventID,
				"productId":   strconv.FormatInt(line.ProductID, 10),
				"sourceTable": line.SourceTable.String(),
				"screen":      "cart-screen",
			},
		})
	}

	if _, err := n.push.Publish(ctx, msgs); err != nil {
		return fmt.Errorf("publish cart push: %w", err)
	}
	n.logger.Debugw("cart push sent", "user", userID, "event", eventID, "devices", len(tokens))
	return nil
}
