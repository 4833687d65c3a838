package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"merchant-service/shared/logger"

	"github.com/IBM/sarama"
)

type fakeSession struct {
	sarama.ConsumerGroupSession
	ctx    context.Context
	marked []int64
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.marked = append(s.marked, msg.Offset)
}

type fakeClaim struct {
	sarama.ConsumerGroupClaim
	messages chan *sarama.ConsumerMessage
}

func (c *fakeClaim) Messages() <-chan *sarama.ConsumerMessage { return c.messages }

type recordingHandler struct {
	types  []MessageType
	traces []string
	err    error
}

func (h *recordingHandler) HandleMessage(ctx context.Context, _ string, message *Message) error {
	h.types = append(h.types, message.Type)
	h.traces = append(h.traces, logger.GetTraceID(ctx))
	return h.err
}

func consumerMessage(t *testing.T, offset int64, value []byte) *sarama.ConsumerMessage {
	t.Helper()
	return &sarama.ConsumerMessage{Topic: string(TopicMerchantCommands), Offset: offset, Value: value}
}

func encode(t *testing.T, msg *Message) []byte {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestConsumeClaim_MarksEveryMessage(t *testing.T) {
	msg, err := NewMessage(TypeMerchantStatusChange, map[string]string{"merchantId": "MRC1"}, "ops", "trace-1")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}

	handler := &recordingHandler{err: errors.New("store down")}
	gh := newGroupHandler(handler, logger.NewNop())

	claim := &fakeClaim{messages: make(chan *sarama.ConsumerMessage, 3)}
	claim.messages <- consumerMessage(t, 10, encode(t, msg))
	claim.messages <- consumerMessage(t, 11, []byte("{not json"))
	claim.messages <- consumerMessage(t, 12, encode(t, msg))
	close(claim.messages)

	session := &fakeSession{ctx: context.Background()}
	if err := gh.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("ConsumeClaim: %v", err)
	}

	if len(session.marked) != 3 {
		t.Fatalf("marked = %v, want all three offsets", session.marked)
	}
	if len(handler.types) != 2 {
		t.Fatalf("handled %d messages, want 2 decodable ones", len(handler.types))
	}
	if handler.traces[0] != "trace-1" {
		t.Errorf("trace id not propagated: %q", handler.traces[0])
	}
}

func TestNewMessage(t *testing.T) {
	msg, err := NewMessage(TypeMerchantStatusChange, map[string]string{"status": "ACTIVE"}, "admin", "")
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if msg.TraceID == "" || msg.Timestamp.IsZero() || msg.Source != "admin" {
		t.Errorf("msg = %+v", msg)
	}

	var out struct{ Status string }
	if err := msg.UnmarshalData(&out); err != nil || out.Status != "ACTIVE" {
		t.Errorf("UnmarshalData = %+v, %v", out, err)
	}

	if _, err := NewMessage(TypeMerchantStatusChange, make(chan int), "admin", ""); err == nil {
		t.Error("expected marshal error")
	}
}

func TestUnmarshalData_Empty(t *testing.T) {
	var v map[string]interface{}
	if err := (&Message{Type: TypeMerchantStatusChange}).UnmarshalData(&v); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestNewConsumer_RequiresBrokersAndTopics(t *testing.T) {
	if _, err := NewConsumer(ConsumerConfig{Topics: []string{"t"}}, &recordingHandler{}, logger.NewNop()); err == nil {
		t.Error("expected error without brokers")
	}
	if _, err := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:9092"}}, &recordingHandler{}, logger.NewNop()); err == nil {
		t.Error("expected error without topics")
	}
}
