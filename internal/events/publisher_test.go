package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cockpit/internal/events"
	"cockpit/pkg/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishDisposition(t *testing.T) {
	fw := &fakeWriter{}
	p := events.NewPublisherWithWriter(fw)
	rec := models.DispositionRecord{
		RunID:       "run-1",
		DocNumber:   "5100000001",
		CompanyCode: "3B5",
		Disposition: models.Posted("5200000001"),
		ProcessedAt: time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.PublishDisposition(context.Background(), rec))
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "5100000001", string(fw.msgs[0].Key))

	var ev events.DispositionEvent
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &ev))
	assert.Equal(t, "posted", ev.Kind)
	assert.Equal(t, "5200000001", ev.PostingNumber)
	assert.Equal(t, "run-1", ev.RunID)
	_, err := uuid.Parse(ev.EventID)
	assert.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, fw.closed)
}

func TestPublishWriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	p := events.NewPublisherWithWriter(fw)

	err := p.Publish(context.Background(), "k", map[string]string{"a": "b"})

	require.Error(t, err)
	assert.ErrorIs(t, err, fw.err)
}

func TestPublishMarshalError(t *testing.T) {
	p := events.NewPublisherWithWriter(&fakeWriter{})

	err := p.Publish(context.Background(), "k", make(chan int))

	assert.ErrorContains(t, err, "failed to marshal value")
}
