//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "sigil/pkg/platform/audit"
	"sigil/pkg/testutil/containers"
)

func TestPublisher(t *testing.T) {
	broker := containers.NewRedpandaContainer(t).Broker
	logger := slog.New(slog.DiscardHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pub, err := New(ctx, []string{broker}, "sigil.audit.test", logger)
	require.NoError(t, err)
	defer pub.Close()

	event := audit.Event{
		Name:     audit.EventProfileDisclosed,
		RecordID: 7,
		Actor:    "counselor-1",
	}
	require.NoError(t, pub.Emit(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics("sigil.audit.test"),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())
	records := fetches.Records()
	require.Len(t, records, 1)

	assert.Equal(t, "7", string(records[0].Key))

	var got envelope
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "profile_disclosed", got.Name)
	assert.Equal(t, "compliance", got.Category)
	assert.Equal(t, uint64(7), got.RecordID)
	assert.Equal(t, "counselor-1", got.Actor)
	assert.NotEmpty(t, got.Timestamp)
}
