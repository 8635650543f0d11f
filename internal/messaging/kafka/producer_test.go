package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
)

func testOrder() domain.Order {
	return domain.Order{
		ID:           7,
		CustomerName: "alice",
		ItemSummary:  "Croissant, Bagel",
		TotalPrice:   decimal.RequireFromString("5.75"),
		CreatedAt:    time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestProducer_PublishOrderPlaced(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil, "", log.WithField("component", "kafka-producer-test"))

	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		assert.Equal(t, TopicOrderEvents, msg.Topic)

		key, err := msg.Key.Encode()
		require.NoError(t, err)
		assert.Equal(t, "7", string(key))

		require.Len(t, msg.Headers, 1)
		assert.Equal(t, string(EventTypeOrderPlaced), string(msg.Headers[0].Value))

		value, err := msg.Value.Encode()
		require.NoError(t, err)

		var event OrderPlacedEvent
		require.NoError(t, json.Unmarshal(value, &event))
		assert.Equal(t, EventTypeOrderPlaced, event.EventType)
		assert.Equal(t, int64(7), event.OrderID)
		assert.Equal(t, "alice", event.CustomerName)
		assert.Equal(t, []string{"Croissant", "Bagel"}, event.Items)
		assert.Equal(t, "5.75", event.TotalPrice)
		return nil
	})

	require.NoError(t, producer.PublishOrderPlaced(context.Background(), testOrder()))
	require.NoError(t, producer.Close())
}

func TestProducer_PublishOrderPlaced_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil, "custom.topic", nil)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishOrderPlaced(context.Background(), testOrder())
	require.Error(t, err)
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Equal(t, "custom.topic", producer.Topic())

	require.NoError(t, producer.Close())
}

func TestProducer_PublishOrderPlaced_CanceledContext(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := newProducer(mockProducer, nil, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := producer.PublishOrderPlaced(ctx, testOrder())
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, producer.Close())
}

func TestNewProducer_NoBrokers(t *testing.T) {
	_, err := NewProducer(nil, TopicOrderEvents, nil)
	require.Error(t, err)
}

func TestProducer_CloseNil(t *testing.T) {
	var producer *Producer
	assert.NoError(t, producer.Close())
}

func TestNewOrderPlacedEvent_EmptyOrder(t *testing.T) {
	event := NewOrderPlacedEvent(domain.Order{ID: 3, CustomerName: "bob", TotalPrice: decimal.Zero})

	assert.Equal(t, []string{}, event.Items)
	assert.Equal(t, "0.00", event.TotalPrice)
	assert.Equal(t, "3", event.Key())
	assert.False(t, event.Timestamp.IsZero())
	assert.WithinDuration(t, time.Now(), event.Timestamp, time.Second)
}

type fakeMetadata struct {
	refreshErr error
	block      chan struct{}
	closed     bool
	topics     []string
}

func (f *fakeMetadata) RefreshMetadata(topics ...string) error {
	if f.block != nil {
		<-f.block
	}
	f.topics = append(f.topics, topics...)
	return f.refreshErr
}

func (f *fakeMetadata) Closed() bool { return f.closed }

func (f *fakeMetadata) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Ping(t *testing.T) {
	meta := &fakeMetadata{}
	producer := newProducer(mocks.NewSyncProducer(t, nil), meta, "", nil)

	require.NoError(t, producer.Ping(context.Background()))
	assert.Equal(t, []string{TopicOrderEvents}, meta.topics)

	meta.refreshErr = sarama.ErrOutOfBrokers
	assert.ErrorIs(t, producer.Ping(context.Background()), sarama.ErrOutOfBrokers)

	require.NoError(t, producer.Close())
	assert.True(t, meta.closed, "Close must release the client")
	assert.Error(t, producer.Ping(context.Background()))
}

func TestProducer_PingRespectsContext(t *testing.T) {
	meta := &fakeMetadata{block: make(chan struct{})}
	defer close(meta.block)
	producer := newProducer(mocks.NewSyncProducer(t, nil), meta, "", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.True(t, errors.Is(producer.Ping(ctx), context.DeadlineExceeded))
}

func TestProducer_PingWithoutClient(t *testing.T) {
	var producer *Producer
	assert.Error(t, producer.Ping(context.Background()))
}
