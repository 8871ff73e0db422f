package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/namansh70747/greenops-planner/internal/storage"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	w := &recordingWriter{}
	p := newKafkaPublisher(w, "greenops.deployments", nil)
	ts := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	event := &storage.DeploymentEvent{ID: "e1", Timestamp: ts, PlanID: "budget", Region: "MUM1", CarbonIntensity: storage.Float(650), Replicas: 1}
	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if string(msg.Key) != "MUM1" || !msg.Time.Equal(ts) {
		t.Fatalf("unexpected key/time %s %v", msg.Key, msg.Time)
	}

	var decoded storage.DeploymentEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "e1" || decoded.CarbonIntensity == nil || *decoded.CarbonIntensity != 650 {
		t.Fatalf("unexpected payload %+v", decoded)
	}

	if err := p.Close(); err != nil || !w.closed {
		t.Fatalf("expected writer to be closed")
	}
}

func TestKafkaPublisherWrapsWriteErrors(t *testing.T) {
	boom := errors.New("broker down")
	p := newKafkaPublisher(&recordingWriter{err: boom}, "topic", nil)
	err := p.Publish(context.Background(), &storage.DeploymentEvent{ID: "e1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}
