// Package model defines the domain types used across the application.
package model

import "time"

// Recipient is a registered Telegram user that can subscribe to channels.
// Recipients are created on first interaction and never deleted.
type Recipient struct {
	ID         int64
	TelegramID int64
	Handle     string
	CreatedAt  time.Time
}

// SourceChannel is a catalog entry for a Discord channel observed on the
// configured guild. IsActive=false means "not currently observed"; entries
// are never deleted so historical mention lookups keep resolving.
type SourceChannel struct {
	ID         int64
	ChannelID  string
	Name       string
	IsActive   bool
	LastSeenAt time.Time
}

// Subscription binds one recipient to one source channel. Deactivation is
// the only removal path.
type Subscription struct {
	ID          int64
	RecipientID int64
	ChannelID   string
	Label       string
	IsActive    bool
	CreatedAt   time.Time
}

// Filter narrows which messages are relayed for one subscription.
// One filter holds exactly one keyword; multiple filters on a
// subscription combine with OR semantics.
type Filter struct {
	ID             int64
	RecipientID    int64
	SubscriptionID int64
	Keyword        string
	IsActive       bool
	CreatedAt      time.Time
}

// DeliveryRecord is the deduplication ledger entry, created exactly once
// per (message, recipient) pair at claim time and never mutated.
type DeliveryRecord struct {
	ID            int64
	MessageID     string
	ChannelID     string
	RecipientID   int64
	Content       string
	Normalized    string
	MatchedFilter string
	CreatedAt     time.Time
}

// Subscriber pairs a subscription with its owning recipient, as resolved
// for an inbound channel message.
type Subscriber struct {
	Subscription Subscription
	Recipient    Recipient
}

// ObservedChannel is one channel currently visible on the source platform,
// as reported to the catalog synchronizer.
type ObservedChannel struct {
	ChannelID string
	Name      string
}
