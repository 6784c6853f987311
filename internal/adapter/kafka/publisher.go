package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/crop-advisor/internal/config"
	"github.com/couchcryptid/crop-advisor/internal/observability"
	"github.com/couchcryptid/crop-advisor/internal/report"
)

// Publisher produces generated reports to a Kafka topic.
type Publisher struct {
	writer  *kafkago.Writer
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, metrics: metrics, logger: logger}
}

// Publish serializes r as JSON and writes it keyed by location.
func (p *Publisher) Publish(ctx context.Context, r report.Report) error {
	msg, err := serializeToMessage(r)
	if err != nil {
		p.metrics.PublishFailures.Inc()
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.PublishFailures.Inc()
		return fmt.Errorf("publish report: %w", err)
	}
	p.metrics.ReportsPublished.Inc()
	p.logger.Info("report published", "topic", p.writer.Topic, "location", r.Location)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a report into a Kafka message.
func serializeToMessage(r report.Report) (kafkago.Message, error) {
	data, err := r.JSON()
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	weather := "ok"
	if r.Weather.Err() != nil {
		weather = "error"
	}
	return kafkago.Message{
		Key:   []byte(r.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "crop_type", Value: []byte(r.CropType)},
			{Key: "weather", Value: []byte(weather)},
			{Key: "generated_at", Value: []byte(r.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
