package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

func testEvent() Event {
	return Event{
		Type:        DebateComplete,
		Watcher:     "recruiter-1",
		ResultID:    uuid.MustParse("0b7f1a52-8f55-4a8e-9c39-3f1e4f0a7d11"),
		CandidateID: "cand-1",
		JobID:       "job-1",
		Message:     Message(DebateComplete),
		CreatedAt:   time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	t.Parallel()

	good := &Recorder{}
	bad := &Recorder{Err: errors.New("broker down")}
	m := Multi{good, nil, bad}

	err := m.Notify(context.Background(), testEvent())
	if err == nil || err.Error() != "broker down" {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(good.Events()) != 1 || len(bad.Events()) != 1 {
		t.Fatalf("every sink should see the event: good=%d bad=%d", len(good.Events()), len(bad.Events()))
	}
}

type fakePublisher struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (f *fakePublisher) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

func TestAMQPNotify(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	sink := &AMQP{channel: pub, exchange: "recruit-panel"}

	if err := sink.Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pub.exchange != "recruit-panel" || pub.key != string(DebateComplete) {
		t.Fatalf("unexpected routing: %q %q", pub.exchange, pub.key)
	}
	if pub.msg.DeliveryMode != amqp.Persistent || pub.msg.ContentType != contentType {
		t.Fatalf("unexpected publishing: %+v", pub.msg)
	}

	var got Event
	if err := json.Unmarshal(pub.msg.Body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Watcher != "recruiter-1" || got.Type != DebateComplete {
		t.Fatalf("unexpected body: %+v", got)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close without connection: %v", err)
	}
}

func TestWebhookNotify(t *testing.T) {
	t.Parallel()

	var received Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL, time.Second).Notify(context.Background(), testEvent()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if received.CandidateID != "cand-1" || received.Message != Message(DebateComplete) {
		t.Fatalf("unexpected payload: %+v", received)
	}
}

func TestWebhookBadStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := NewWebhook(srv.URL, time.Second).Notify(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error on 502")
	}
}
