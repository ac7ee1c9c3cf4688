package notifications

import (
	"context"
	"testing"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/carts"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/catalog"
	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/domain/variants"

	"github.com/9ssi7/exponent"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recorderSender struct {
	published [][]*exponent.Message
}

func (r *recorderSender) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	r.published = append(r.published, msgs)
	return nil, nil
}

func (r *recorderSender) PublishSingle(_ context.Context, msg *exponent.Message) ([]*exponent.MessageResponse, error) {
	r.published = append(r.published, []*exponent.Message{msg})
	return nil, nil
}

type staticTokens struct {
	tokens []string
}

func (s *staticTokens) GetTokensByUserID(context.Context, int64) ([]string, error) {
	return s.tokens, nil
}

func testLine() carts.CartLine {
	return carts.CartLine{
		CartItem: carts.CartItem{
			ProductID:   7,
			SourceTable: catalog.TableMen,
			Quantity:    2,
			Variant:     variants.Variant{Color: "Black", Size: "42"},
		},
		ProductName: "Air Strider",
	}
}

func TestCartItemAddedPublishesPerDevice(t *testing.T) {
	sender := &recorderSender{}
	notifier := NewCartNotifier(sender, &staticTokens{tokens: []string{"tok-a", "tok-b"}}, zap.NewNop().Sugar())

	err := notifier.CartItemAdded(context.Background(), 42, testLine())
	require.NoError(t, err)

	require.Len(t, sender.published, 1)
	msgs := sender.published[0]
	require.Len(t, msgs, 2)

	assert.Equal(t, "Added to cart", msgs[0].Title)
	assert.Contains(t, msgs[0].Body, "Air Strider")
	assert.Contains(t, msgs[0].Body, "Black / 42")
	assert.Equal(t, "7", msgs[0].Data["productId"])
	assert.Equal(t, "men", msgs[0].Data["sourceTable"])
	assert.NotEmpty(t, msgs[0].Data["eventId"])

	// one event id shared across devices
	assert.Equal(t, msgs[0].Data["eventId"], msgs[1].Data["eventId"])
}

func TestCartItemAddedNoDevicesIsQuiet(t *testing.T) {
	sender := &recorderSender{}
	notifier := NewCartNotifier(sender, &staticTokens{}, zap.NewNop().Sugar())

	err := notifier.CartItemAdded(context.Background(), 42, testLine())
	require.NoError(t, err)
	assert.Empty(t, sender.published)
}
