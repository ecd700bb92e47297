package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/incident-analytics-service/internal/config"
	"github.com/couchcryptid/incident-analytics-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces scored incidents to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return &Writer{writer: newProducer(cfg.KafkaBrokers, cfg.KafkaSinkTopic), logger: logger}
}

// LoadBatch serializes and publishes scored incidents to the sink topic
// in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, incidents []domain.ScoredIncident) error {
	if len(incidents) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(incidents))
	for i := range incidents {
		msg, err := serializeToMessage(incidents[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write scored incidents: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// ReportWriter publishes analysis reports to the report topic.
type ReportWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the configured report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	return &ReportWriter{writer: newProducer(cfg.KafkaBrokers, cfg.KafkaReportTopic), logger: logger}
}

// PublishReport writes one report keyed by its ID.
func (w *ReportWriter) PublishReport(ctx context.Context, report domain.Report) error {
	msg, err := serializeReport(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write report %s: %w", report.ID, err)
	}
	w.logger.Info("report published", "report_id", report.ID, "topic", w.writer.Topic)
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

func newProducer(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
}

// serializeToMessage marshals a ScoredIncident into a Kafka message.
func serializeToMessage(incident domain.ScoredIncident) (kafkago.Message, error) {
	data, err := json.Marshal(incident)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scored incident: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(incident.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "category", Value: []byte(incident.Category)},
			{Key: "severity", Value: []byte(incident.Severity)},
			{Key: "risk_score", Value: []byte(strconv.FormatFloat(incident.RiskScore, 'f', 1, 64))},
			{Key: "processed_at", Value: []byte(domain.ProcessedAtHeader(incident.ProcessedAt))},
		},
	}, nil
}

func serializeReport(report domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "date_range", Value: []byte(report.DateRange)},
			{Key: "generated_at", Value: []byte(domain.ProcessedAtHeader(report.GeneratedAt))},
		},
	}, nil
}
