// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"relay_bot/internal/model"
)

// Storage is the interface for all persistence operations.
type Storage interface {
	GetOrCreateRecipient(ctx context.Context, telegramID int64, handle string) (*model.Recipient, error)
	GetRecipient(ctx context.Context, id int64) (*model.Recipient, error)

	SyncChannels(ctx context.Context, observed []model.ObservedChannel) error
	ListActiveChannels(ctx context.Context) ([]model.SourceChannel, error)
	GetChannelByPlatformID(ctx context.Context, channelID string) (*model.SourceChannel, error)

	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscription(ctx context.Context, id int64) (*model.Subscription, error)
	ListSubscriptions(ctx context.Context, recipientID int64) ([]model.Subscription, error)
	ListActiveSubscribers(ctx context.Context, channelID string) ([]model.Subscriber, error)
	SetSubscriptionActive(ctx context.Context, id int64, active bool) error

	CreateFilter(ctx context.Context, f *model.Filter) error
	GetFilter(ctx context.Context, id int64) (*model.Filter, error)
	ListActiveFilters(ctx context.Context, subscriptionID int64) ([]model.Filter, error)
	SetFilterActive(ctx context.Context, id int64, active bool) error

	TryClaimDelivery(ctx context.Context, rec *model.DeliveryRecord) (bool, error)
	ListRecentDeliveries(ctx context.Context, recipientID int64, limit int) ([]model.DeliveryRecord, error)

	Close() error
}
