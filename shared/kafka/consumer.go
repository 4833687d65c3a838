package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"merchant-service/shared/logger"

	"github.com/IBM/sarama"
)

// MessageHandler processes one decoded envelope. ctx carries the message trace id.
type MessageHandler interface {
	HandleMessage(ctx context.Context, topic string, message *Message) error
}

// ConsumerConfig names the brokers, group and topics to consume.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
	// RetryBackoff is the pause after a failed Consume call.
	RetryBackoff time.Duration
}

// Consumer runs a sarama consumer group and hands every message to a
// MessageHandler. Offsets are marked whether or not handling succeeded;
// failures are logged, not redelivered.
type Consumer struct {
	cfg     ConsumerConfig
	group   sarama.ConsumerGroup
	handler *groupHandler
	log     logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewConsumer joins cfg.GroupID; call Start to begin consuming.
func NewConsumer(cfg ConsumerConfig, handler MessageHandler, log logger.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer needs at least one broker")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("kafka consumer needs at least one topic")
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 5 * time.Second
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_8_1_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}

	return &Consumer{
		cfg:     cfg,
		group:   group,
		handler: newGroupHandler(handler, log),
		log:     log,
		done:    make(chan struct{}),
	}, nil
}

// Start consumes in the background until Close is called.
func (c *Consumer) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		defer close(c.done)
		for {
			c.log.Info("consuming kafka topics %v as group %s", c.cfg.Topics, c.cfg.GroupID)
			if err := c.group.Consume(ctx, c.cfg.Topics, c.handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.log.WithError(err).Error("kafka consume failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(c.cfg.RetryBackoff):
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()
}

// Close stops consumption and releases the group.
func (c *Consumer) Close() error {
	var err error
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
		}
		err = c.group.Close()
		if c.cancel != nil {
			<-c.done
		}
	})
	return err
}

// groupHandler implements sarama.ConsumerGroupHandler.
type groupHandler struct {
	handler MessageHandler
	log     logger.Logger
}

func newGroupHandler(handler MessageHandler, log logger.Logger) *groupHandler {
	return &groupHandler{handler: handler, log: log}
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		h.process(session.Context(), msg)
		session.MarkMessage(msg, "")
	}
	return nil
}

func (h *groupHandler) process(ctx context.Context, msg *sarama.ConsumerMessage) {
	entry := h.log.WithFields(map[string]interface{}{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var message Message
	if err := json.Unmarshal(msg.Value, &message); err != nil {
		entry.WithError(err).Warn("dropping undecodable kafka message")
		return
	}

	if message.TraceID != "" {
		ctx = logger.WithTraceID(ctx, message.TraceID)
	}
	if err := h.handler.HandleMessage(ctx, msg.Topic, &message); err != nil {
		entry.WithError(err).ErrorContext(ctx, "handle %s message", message.Type)
	}
}
