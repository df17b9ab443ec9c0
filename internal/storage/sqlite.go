package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"relay_bot/internal/model"
	"relay_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Pragmas apply per connection, so keep the pool at one connection;
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetOrCreateRecipient returns the recipient with the given Telegram ID,
// creating it on first interaction. An existing recipient's handle is
// refreshed when it changed on the Telegram side.
func (s *SQLite) GetOrCreateRecipient(ctx context.Context, telegramID int64, handle string) (*model.Recipient, error) {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipients (telegram_id, handle, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (telegram_id) DO UPDATE SET handle = excluded.handle WHERE excluded.handle != ''`,
		telegramID, handle, now,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert recipient: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, handle, created_at FROM recipients WHERE telegram_id = ?`, telegramID,
	)
	return scanRecipient(row)
}

// GetRecipient returns a single recipient by its internal ID.
func (s *SQLite) GetRecipient(ctx context.Context, id int64) (*model.Recipient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, handle, created_at FROM recipients WHERE id = ?`, id,
	)
	return scanRecipient(row)
}

// SyncChannels reconciles the catalog against the observed channel set in a
// single transaction: every active entry is marked inactive, then each
// observed channel is re-activated (or inserted) with a fresh timestamp.
func (s *SQLite) SyncChannels(ctx context.Context, observed []model.ObservedChannel) error {
	now := time.Now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE source_channels SET is_active = 0 WHERE is_active = 1`,
	); err != nil {
		return fmt.Errorf("deactivate channels: %w", err)
	}

	for _, ch := range observed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO source_channels (channel_id, name, is_active, last_seen_at) VALUES (?, ?, 1, ?)
			 ON CONFLICT (channel_id) DO UPDATE SET name = excluded.name, is_active = 1, last_seen_at = excluded.last_seen_at`,
			ch.ChannelID, ch.Name, now,
		); err != nil {
			return fmt.Errorf("upsert channel %s: %w", ch.ChannelID, err)
		}
	}

	return tx.Commit()
}

// ListActiveChannels returns all currently observed catalog entries.
func (s *SQLite) ListActiveChannels(ctx context.Context) ([]model.SourceChannel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, name, is_active, last_seen_at
		 FROM source_channels WHERE is_active = 1 ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query channels: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var channels []model.SourceChannel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

// GetChannelByPlatformID returns the catalog entry for a Discord channel ID,
// active or not.
func (s *SQLite) GetChannelByPlatformID(ctx context.Context, channelID string) (*model.SourceChannel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, name, is_active, last_seen_at FROM source_channels WHERE channel_id = ?`,
		channelID,
	)
	return scanChannel(row)
}

// CreateSubscription inserts a new subscription and populates its ID and CreatedAt.
func (s *SQLite) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (recipient_id, channel_id, label, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sub.RecipientID, sub.ChannelID, sub.Label, boolToInt(sub.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	sub.ID = id
	sub.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetSubscription returns a single subscription by its ID.
func (s *SQLite) GetSubscription(ctx context.Context, id int64) (*model.Subscription, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, recipient_id, channel_id, label, is_active, created_at
		 FROM subscriptions WHERE id = ?`, id,
	)
	return scanSubscription(row)
}

// ListSubscriptions returns all subscriptions belonging to the given recipient.
func (s *SQLite) ListSubscriptions(ctx context.Context, recipientID int64) ([]model.Subscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipient_id, channel_id, label, is_active, created_at
		 FROM subscriptions WHERE recipient_id = ? ORDER BY id`, recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// ListActiveSubscribers returns the active subscriptions for a source
// channel, each paired with its recipient, in subscription creation order.
func (s *SQLite) ListActiveSubscribers(ctx context.Context, channelID string) ([]model.Subscriber, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.recipient_id, s.channel_id, s.label, s.is_active, s.created_at,
		        r.id, r.telegram_id, r.handle, r.created_at
		 FROM subscriptions s
		 JOIN recipients r ON r.id = s.recipient_id
		 WHERE s.channel_id = ? AND s.is_active = 1
		 ORDER BY s.id`, channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("query subscribers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subscribers []model.Subscriber
	for rows.Next() {
		var sub model.Subscription
		var rec model.Recipient
		var subActive int
		var subCreated, recCreated string
		err := rows.Scan(
			&sub.ID, &sub.RecipientID, &sub.ChannelID, &sub.Label, &subActive, &subCreated,
			&rec.ID, &rec.TelegramID, &rec.Handle, &recCreated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		sub.IsActive = subActive == 1
		sub.CreatedAt, _ = time.Parse(timeLayout, subCreated)
		rec.CreatedAt, _ = time.Parse(timeLayout, recCreated)
		subscribers = append(subscribers, model.Subscriber{Subscription: sub, Recipient: rec})
	}
	return subscribers, rows.Err()
}

// SetSubscriptionActive toggles a subscription's active flag.
func (s *SQLite) SetSubscriptionActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET is_active = ? WHERE id = ?`, boolToInt(active), id,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	return nil
}

// CreateFilter inserts a new filter and populates its ID and CreatedAt.
func (s *SQLite) CreateFilter(ctx context.Context, f *model.Filter) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO filters (recipient_id, subscription_id, keyword, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		f.RecipientID, f.SubscriptionID, f.Keyword, boolToInt(f.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert filter: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	f.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetFilter returns a single filter by its ID.
func (s *SQLite) GetFilter(ctx context.Context, id int64) (*model.Filter, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, recipient_id, subscription_id, keyword, is_active, created_at
		 FROM filters WHERE id = ?`, id,
	)
	return scanFilter(row)
}

// ListActiveFilters returns the active filters attached to a subscription.
func (s *SQLite) ListActiveFilters(ctx context.Context, subscriptionID int64) ([]model.Filter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, recipient_id, subscription_id, keyword, is_active, created_at
		 FROM filters WHERE subscription_id = ? AND is_active = 1 ORDER BY id`, subscriptionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query filters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var filters []model.Filter
	for rows.Next() {
		f, err := scanFilter(rows)
		if err != nil {
			return nil, err
		}
		filters = append(filters, *f)
	}
	return filters, rows.Err()
}

// SetFilterActive toggles a filter's active flag.
func (s *SQLite) SetFilterActive(ctx context.Context, id int64, active bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE filters SET is_active = ? WHERE id = ?`, boolToInt(active), id,
	)
	if err != nil {
		return fmt.Errorf("update filter: %w", err)
	}
	return nil
}

// TryClaimDelivery atomically records delivery intent for one
// (message, recipient) pair. It returns true when this call created the
// record and false when the pair was already claimed; the UNIQUE
// constraint on (message_id, recipient_id) serializes concurrent claims.
func (s *SQLite) TryClaimDelivery(ctx context.Context, rec *model.DeliveryRecord) (bool, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO deliveries (message_id, channel_id, recipient_id, content, normalized, matched_filter, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.MessageID, rec.ChannelID, rec.RecipientID, rec.Content, rec.Normalized, rec.MatchedFilter, now,
	)
	if err != nil {
		return false, fmt.Errorf("claim delivery: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	rec.ID = id
	rec.CreatedAt, _ = time.Parse(timeLayout, now)
	return true, nil
}

// ListRecentDeliveries returns the newest delivery records for a recipient.
func (s *SQLite) ListRecentDeliveries(ctx context.Context, recipientID int64, limit int) ([]model.DeliveryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message_id, channel_id, recipient_id, content, normalized, matched_filter, created_at
		 FROM deliveries WHERE recipient_id = ? ORDER BY id DESC LIMIT ?`, recipientID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recs []model.DeliveryRecord
	for rows.Next() {
		var r model.DeliveryRecord
		var created string
		err := rows.Scan(&r.ID, &r.MessageID, &r.ChannelID, &r.RecipientID, &r.Content, &r.Normalized, &r.MatchedFilter, &created)
		if err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		r.CreatedAt, _ = time.Parse(timeLayout, created)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecipient(row scannable) (*model.Recipient, error) {
	var r model.Recipient
	var created string
	if err := row.Scan(&r.ID, &r.TelegramID, &r.Handle, &created); err != nil {
		return nil, fmt.Errorf("scan recipient: %w", err)
	}
	r.CreatedAt, _ = time.Parse(timeLayout, created)
	return &r, nil
}

func scanChannel(row scannable) (*model.SourceChannel, error) {
	var ch model.SourceChannel
	var active int
	var lastSeen string
	if err := row.Scan(&ch.ID, &ch.ChannelID, &ch.Name, &active, &lastSeen); err != nil {
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	ch.IsActive = active == 1
	ch.LastSeenAt, _ = time.Parse(timeLayout, lastSeen)
	return &ch, nil
}

func scanSubscription(row scannable) (*model.Subscription, error) {
	var sub model.Subscription
	var active int
	var created string
	if err := row.Scan(&sub.ID, &sub.RecipientID, &sub.ChannelID, &sub.Label, &active, &created); err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	sub.IsActive = active == 1
	sub.CreatedAt, _ = time.Parse(timeLayout, created)
	return &sub, nil
}

func scanFilter(row scannable) (*model.Filter, error) {
	var f model.Filter
	var active int
	var created string
	if err := row.Scan(&f.ID, &f.RecipientID, &f.SubscriptionID, &f.Keyword, &active, &created); err != nil {
		return nil, fmt.Errorf("scan filter: %w", err)
	}
	f.IsActive = active == 1
	f.CreatedAt, _ = time.Parse(timeLayout, created)
	return &f, nil
}
