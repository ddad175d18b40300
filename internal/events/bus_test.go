package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dinhh-Chan/accounting-web-sub000/internal/common"
)

type memStore struct {
	events []Event
}

func (s *memStore) Append(_ context.Context, e Event) error {
	s.events = append(s.events, e)
	return nil
}

type recordingNotifier struct {
	seen []string
}

func (n *recordingNotifier) Notify(_ context.Context, e Event) {
	n.seen = append(n.seen, e.Topic)
}

func TestPublishPersistsAndNotifies(t *testing.T) {
	store := &memStore{}
	notifier := &recordingNotifier{}
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	bus := &Bus{Store: store, Notifiers: []Notifier{notifier}, Now: func() time.Time { return now }}

	err := bus.Publish(context.Background(), TopicInvoiceCreated, map[string]string{"soct": "HD0001"})

	require.NoError(t, err)
	require.Len(t, store.events, 1)
	assert.Equal(t, TopicInvoiceCreated, store.events[0].Topic)
	assert.Equal(t, now, store.events[0].OccurredAt)
	assert.JSONEq(t, `{"soct":"HD0001"}`, string(store.events[0].Payload))
	assert.Equal(t, []string{TopicInvoiceCreated}, notifier.seen)
}

func TestCacheInvalidatorDropsReportKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := common.NewCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetJSON(ctx, "report:doanhthu:2025", map[string]int{"t": 1}))
	require.NoError(t, cache.SetJSON(ctx, "spdv:SP0001", map[string]int{"t": 1}))

	inv := CacheInvalidator{Cache: cache, Prefix: "report:", Logger: zerolog.Nop()}
	inv.Notify(ctx, Event{Topic: TopicInvoiceCreated})

	var dst map[string]int
	hit, err := cache.GetJSON(ctx, "report:doanhthu:2025", &dst)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = cache.GetJSON(ctx, "spdv:SP0001", &dst)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCacheInvalidatorIgnoresOtherTopics(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := common.NewCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetJSON(ctx, "report:doanhthu:2025", map[string]int{"t": 1}))

	inv := CacheInvalidator{Cache: cache, Prefix: "report:", Logger: zerolog.Nop()}
	inv.Notify(ctx, Event{Topic: "user.registered"})

	var dst map[string]int
	hit, err := cache.GetJSON(ctx, "report:doanhthu:2025", &dst)
	require.NoError(t, err)
	assert.True(t, hit)
}
