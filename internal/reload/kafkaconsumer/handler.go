package kafkaconsumer

import (
	"context"
	"log/slog"

	"github.com/IBM/sarama"
)

type groupHandler struct {
	logger  *slog.Logger
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim marks every message, failed ones included: a reload that
// fails keeps the previous catalog and the next notification or periodic
// reload picks up the document again.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			h.logger.WarnContext(ctx, "reload event not applied",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"err", err)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
