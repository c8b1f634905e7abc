package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/glowbook/service-booking/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages, then blocks until ctx is cancelled.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type fakeRecorder struct {
	mu         sync.Mutex
	authorized map[uuid.UUID]string
	failed     map[uuid.UUID]string
	errs       []error
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{authorized: map[uuid.UUID]string{}, failed: map[uuid.UUID]string{}}
}

func (f *fakeRecorder) nextErr() error {
	if len(f.errs) == 0 {
		return nil
	}
	err := f.errs[0]
	f.errs = f.errs[1:]
	return err
}

func (f *fakeRecorder) RecordPaymentAuthorized(_ context.Context, id uuid.UUID, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return err
	}
	f.authorized[id] = ref
	return nil
}

func (f *fakeRecorder) RecordPaymentFailed(_ context.Context, id uuid.UUID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.nextErr(); err != nil {
		return err
	}
	f.failed[id] = reason
	return nil
}

func (f *fakeRecorder) Authorized(id uuid.UUID) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ref, ok := f.authorized[id]
	return ref, ok
}

func eventMessage(t *testing.T, offset int64, eventType string, data interface{}) kafkago.Message {
	t.Helper()
	ce, err := NewCloudEvent("service-payment", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: TopicPaymentEvents, Offset: offset, Value: raw}
}

func TestCloudEvent_RoundTrip(t *testing.T) {
	id := uuid.New()
	ce, err := NewCloudEvent(Source, BookingConfirmed, BookingStatusEvent{BookingID: id, Status: "confirmed"})
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)

	parsed, err := ParseCloudEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "1.0", parsed.SpecVersion)
	assert.Equal(t, BookingConfirmed, parsed.Type)

	var evt BookingStatusEvent
	require.NoError(t, parsed.ParseData(&evt))
	assert.Equal(t, id, evt.BookingID)

	_, err = ParseCloudEvent([]byte(`{"id":"x"}`))
	assert.Error(t, err)
}

func TestProducer_PublishEventKeysBySubject(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, logger: zap.NewNop()}

	ce, err := NewCloudEvent(Source, BookingCancelled, map[string]string{"k": "v"})
	require.NoError(t, err)
	ce.Subject = "booking-1"

	require.NoError(t, p.PublishEvent(context.Background(), TopicBookingEvents, ce))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, TopicBookingEvents, w.msgs[0].Topic)
	assert.Equal(t, []byte("booking-1"), w.msgs[0].Key)

	w.err = errors.New("broker down")
	assert.Error(t, p.PublishEvent(context.Background(), TopicBookingEvents, ce))
}

func newTestConsumer(reader *fakeReader, recorder PaymentStatusRecorder) *PaymentEventConsumer {
	logger := zap.NewNop()
	return &PaymentEventConsumer{
		consumer: &Consumer{reader: reader, topic: TopicPaymentEvents, retryDelay: time.Millisecond, logger: logger},
		recorder: recorder,
		logger:   logger,
	}
}

func TestPaymentEventConsumer_Dispatch(t *testing.T) {
	authorizedID := uuid.New()
	failedID := uuid.New()
	reader := &fakeReader{queue: []kafkago.Message{
		eventMessage(t, 1, PaymentAuthorized, PaymentAuthorizedEvent{BookingID: authorizedID, PaymentRef: "pi_1"}),
		{Offset: 2, Value: []byte("not json")},
		eventMessage(t, 3, "payment.refunded", map[string]string{}),
		eventMessage(t, 4, PaymentFailed, PaymentFailedEvent{BookingID: failedID, Reason: "card_declined"}),
	}}
	recorder := newFakeRecorder()
	c := newTestConsumer(reader, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.Committed()) == 4 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	ref, ok := recorder.Authorized(authorizedID)
	assert.True(t, ok)
	assert.Equal(t, "pi_1", ref)
	assert.Equal(t, "card_declined", recorder.failed[failedID])
}

func TestPaymentEventConsumer_RetriesConflictsDropsRejections(t *testing.T) {
	retried := uuid.New()
	rejected := uuid.New()
	reader := &fakeReader{queue: []kafkago.Message{
		eventMessage(t, 1, PaymentAuthorized, PaymentAuthorizedEvent{BookingID: retried, PaymentRef: "pi_r"}),
		eventMessage(t, 2, PaymentAuthorized, PaymentAuthorizedEvent{BookingID: rejected, PaymentRef: "pi_x"}),
	}}
	recorder := newFakeRecorder()
	recorder.errs = []error{
		domain.NewConflictError("version_conflict", "stale"),
		errors.New("db unavailable"),
		nil,
		domain.NewNotFoundError("Booking", rejected.String()),
	}
	c := newTestConsumer(reader, recorder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool { return len(reader.Committed()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	ref, ok := recorder.Authorized(retried)
	assert.True(t, ok)
	assert.Equal(t, "pi_r", ref)
	_, ok = recorder.Authorized(rejected)
	assert.False(t, ok)
}
