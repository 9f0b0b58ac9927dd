package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type natsPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *slog.Logger
}

// NewNATSPublisher connects to url and makes sure the runs stream exists.
func NewNATSPublisher(url string, logger *slog.Logger) (Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url, nats.Name("worldcup"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(js); err != nil {
		nc.Close()
		return nil, err
	}

	return &natsPublisher{nc: nc, js: js, logger: logger}, nil
}

func ensureStream(js nats.JetStreamContext) error {
	if _, err := js.StreamInfo(StreamName); err == nil {
		return nil
	}
	_, err := js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"worldcup.runs.>"},
	})
	if err != nil {
		return fmt.Errorf("failed to add stream: %w", err)
	}
	return nil
}

func (p *natsPublisher) PublishRunFinished(ctx context.Context, event RunFinishedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run finished event: %w", err)
	}
	// Msg-Id включает дедупликацию JetStream при повторной отправке.
	if _, err := p.js.Publish(SubjectRunFinished, data, nats.Context(ctx), nats.MsgId(event.RunID)); err != nil {
		return fmt.Errorf("failed to publish run finished event: %w", err)
	}
	return nil
}

func (p *natsPublisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("failed to drain NATS connection", slog.Any("error", err))
	}
}
