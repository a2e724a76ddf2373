package consumers

import (
	"context"
	"encoding/json"
	"fmt"

	"geyser/domain"
	"geyser/internal/publisher"

	"go.uber.org/zap"
)

// Routing keys used on the ingest exchange.
const (
	RoutingAccountUpdate = "account.update"
	RoutingSlotStatus    = "slot.status"
	RoutingTransaction   = "transaction"
)

var RoutingKeys = []string{RoutingAccountUpdate, RoutingSlotStatus, RoutingTransaction}

// EventPublisher is the part of publisher.Publisher the handler drives.
type EventPublisher interface {
	PublishAccountUpdate(ev *domain.AccountUpdateEvent) error
	PublishSlotStatus(ev *domain.SlotStatusEvent) error
	PublishTransaction(ev *domain.TransactionEvent) error
	WantsAccountUpdates() bool
	WantsSlotStatus() bool
	WantsTransactions() bool
}

// NodeEventHandler is the host side of the publisher: it skips disabled streams and ignored
// programs before decoding, then publishes. Enqueue failures are returned so the message is
// dead-lettered instead of silently dropped.
type NodeEventHandler struct {
	publisher EventPublisher
	filter    *publisher.Filter
	logger    *zap.Logger
}

func NewNodeEventHandler(pub EventPublisher, filter *publisher.Filter, logger *zap.Logger) *NodeEventHandler {
	if logger == nil {
		logger = zap.L()
	}
	return &NodeEventHandler{
		publisher: pub,
		filter:    filter,
		logger:    logger,
	}
}

func (h *NodeEventHandler) HandleEvent(ctx context.Context, routingKey string, body []byte) error {
	switch routingKey {
	case RoutingAccountUpdate:
		return h.handleAccountUpdate(body)
	case RoutingSlotStatus:
		return h.handleSlotStatus(body)
	case RoutingTransaction:
		return h.handleTransaction(body)
	default:
		h.logger.Warn("Unknown node event type", zap.String("routingKey", routingKey))
		return nil
	}
}

func (h *NodeEventHandler) handleAccountUpdate(body []byte) error {
	if !h.publisher.WantsAccountUpdates() {
		return nil
	}

	var ev domain.AccountUpdateEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("malformed account update: %w", err)
	}
	if !h.filter.WantsProgram(ev.Owner) {
		return nil
	}

	if err := h.publisher.PublishAccountUpdate(&ev); err != nil {
		h.logger.Warn("Failed to publish account update",
			zap.Stringer("pubkey", ev.Pubkey),
			zap.Uint64("slot", ev.Slot),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish account update: %w", err)
	}
	return nil
}

func (h *NodeEventHandler) handleSlotStatus(body []byte) error {
	if !h.publisher.WantsSlotStatus() {
		return nil
	}

	var ev domain.SlotStatusEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("malformed slot status: %w", err)
	}

	if err := h.publisher.PublishSlotStatus(&ev); err != nil {
		h.logger.Warn("Failed to publish slot status",
			zap.Uint64("slot", ev.Slot),
			zap.Stringer("status", ev.Status),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish slot status: %w", err)
	}
	return nil
}

func (h *NodeEventHandler) handleTransaction(body []byte) error {
	if !h.publisher.WantsTransactions() {
		return nil
	}

	var ev domain.TransactionEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("malformed transaction: %w", err)
	}

	if err := h.publisher.PublishTransaction(&ev); err != nil {
		h.logger.Warn("Failed to publish transaction",
			zap.Stringer("signature", ev.Signature),
			zap.Uint64("slot", ev.Slot),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish transaction: %w", err)
	}
	return nil
}
