package pushtokens

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mohamedtarek64/solemate-ecommerce-sub004/internal/infra/dbx"
)

const queryTimeout = 5 * time.Second

// Repository manages Expo push tokens registered by the mobile app. The
// cart notifier reads from it; the device endpoints write to it.
type Repository struct {
	db dbx.Querier
}

func NewRepository(db dbx.Querier) *Repository {
	return &Repository{db: db}
}

// AddOrUpdate upserts a device token and refreshes last_updated so stale
// pruning keeps active devices.
func (r *Repository) AddOrUpdate(ctx context.Context, userID int64, token string, deviceInfo json.RawMessage) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := `
	INSERT INTO user_push_tokens (user_id, expo_push_token, device_info, last_updated)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (user_id, expo_push_token)
	DO UPDATE SET device_info = EXCLUDED.device_info, last_updated = NOW();
	`

	if _, err := r.db.Exec(ctx, q, userID, token, deviceInfo); err != nil {
		return fmt.Errorf("upsert push token: %w", err)
	}
	return nil
}

// Remove deletes one token for a user. Removing a token that was never
// registered is not an error.
func (r *Repository) Remove(ctx context.Context, userID int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := `DELETE FROM user_push_tokens WHERE user_id = $1 AND expo_push_token = $2`
	if _, err := r.db.Exec(ctx, q, userID, token); err != nil {
		return fmt.Errorf("remove push token: %w", err)
	}
	return nil
}

// GetTokensByUserID returns every token registered for a single user.
func (r *Repository) GetTokensByUserID(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	q := `SELECT expo_push_token FROM user_push_tokens WHERE user_id = $1`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan push token: %w", err)
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

// PruneStale deletes tokens not refreshed within olderThan.
func (r *Repository) PruneStale(ctx context.Context, olderThan time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	interval := fmt.Sprintf("%d seconds", int64(olderThan.Seconds()))
	q := `DELETE FROM user_push_tokens WHERE last_updated < NOW() - $1::interval`
	if _, err := r.db.Exec(ctx, q, interval); err != nil {
		return fmt.Errorf("prune push tokens: %w", err)
	}
	return nil
}
