// Package messaging applies merchant commands received over Kafka.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"merchant-service/internal/config"
	"merchant-service/internal/domain/entities"
	"merchant-service/internal/services"
	"merchant-service/shared/kafka"
	"merchant-service/shared/logger"
)

// StatusChangePayload is the data of a merchant.status.change command.
type StatusChangePayload struct {
	MerchantID string                  `json:"merchantId"`
	Status     entities.MerchantStatus `json:"status"`
	Reason     string                  `json:"reason,omitempty"`
}

// StatusChanger is the slice of the merchant service the consumer drives.
type StatusChanger interface {
	ChangeStatus(ctx context.Context, merchantID string, status entities.MerchantStatus) (*entities.MerchantResponse, error)
}

var _ StatusChanger = (*services.MerchantService)(nil)

// StatusCommandHandler routes status-change commands into the lifecycle service.
// Rejected commands are logged and dropped.
type StatusCommandHandler struct {
	merchants StatusChanger
	logger    logger.Logger
}

var _ kafka.MessageHandler = (*StatusCommandHandler)(nil)

// NewStatusCommandHandler applies commands through merchants. A nil log discards output.
func NewStatusCommandHandler(merchants StatusChanger, log logger.Logger) *StatusCommandHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &StatusCommandHandler{merchants: merchants, logger: log}
}

// HandleMessage returns an error only for failures worth an error-level log;
// unknown types and rejected commands are logged here and return nil.
func (h *StatusCommandHandler) HandleMessage(ctx context.Context, topic string, message *kafka.Message) error {
	switch message.Type {
	case kafka.TypeMerchantStatusChange:
		return h.handleStatusChange(ctx, message)
	default:
		h.logger.WithField("topic", topic).WarnContext(ctx, "ignoring message of unknown type %q", message.Type)
		return nil
	}
}

func (h *StatusCommandHandler) handleStatusChange(ctx context.Context, message *kafka.Message) error {
	var payload StatusChangePayload
	if err := message.UnmarshalData(&payload); err != nil {
		h.logger.WithError(err).WarnContext(ctx, "invalid status change payload")
		return nil
	}
	payload.MerchantID = strings.TrimSpace(payload.MerchantID)
	if payload.MerchantID == "" {
		h.logger.WarnContext(ctx, "status change without merchantId")
		return nil
	}

	entry := h.logger.WithFields(map[string]interface{}{
		"merchant_id": payload.MerchantID,
		"status":      string(payload.Status),
		"reason":      payload.Reason,
		"source":      message.Source,
	})

	_, err := h.merchants.ChangeStatus(ctx, payload.MerchantID, payload.Status)
	var (
		validation *entities.ValidationError
		notFound   *entities.NotFoundError
	)
	switch {
	case err == nil:
		entry.InfoContext(ctx, "applied status change command")
		return nil
	case errors.As(err, &validation), errors.As(err, &notFound):
		entry.WithError(err).WarnContext(ctx, "rejected status change command")
		return nil
	default:
		return fmt.Errorf("change status of %s: %w", payload.MerchantID, err)
	}
}

// NewStatusCommandConsumer joins the configured consumer group and feeds
// every message to a StatusCommandHandler.
func NewStatusCommandConsumer(cfg config.KafkaConfig, merchants StatusChanger, log logger.Logger) (*kafka.Consumer, error) {
	topic := cfg.Topic
	if topic == "" {
		topic = string(kafka.TopicMerchantCommands)
	}
	return kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topics:  strings.Split(topic, ","),
	}, NewStatusCommandHandler(merchants, log), log)
}
