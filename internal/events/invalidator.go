package events

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

// CacheInvalidator drops cached report payloads whenever a document changes,
// so the next report read recomputes from the database.
type CacheInvalidator struct {
	Cache  *common.Cache
	Prefix string
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n CacheInvalidator) Notify(ctx context.Context, e Event) {
	switch e.Topic {
	case TopicInvoiceCreated, TopicInvoiceUpdated, TopicInvoiceDeleted,
		TopicVoucherCreated, TopicVoucherUpdated, TopicVoucherDeleted:
	default:
		return
	}
	if err := n.Cache.DeleteByPrefix(ctx, n.Prefix); err != nil {
		n.Logger.Warn().Err(err).Str("topic", e.Topic).Msg("report cache invalidate")
	}
}
