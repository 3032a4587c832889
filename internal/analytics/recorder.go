// Package analytics mirrors processed-reply records to Kafka for
// offline analysis. The mirror is best-effort; reply delivery never
// depends on it.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// ReplyRecord describes one processed Slack task. It carries no
// message content, only routing and outcome metadata.
type ReplyRecord struct {
	TraceID          string    `json:"trace_id"`
	TenantSlug       string    `json:"tenant_slug"`
	Channel          string    `json:"channel"`
	EventType        string    `json:"event_type"`
	GateAccepted     bool      `json:"gate_accepted"`
	Answered         bool      `json:"answered"`
	CitationFallback bool      `json:"citation_fallback"`
	ProcessingMillis int64     `json:"processing_millis"`
	ProcessedAt      time.Time `json:"processed_at"`
}

// Recorder accepts processed-reply records.
type Recorder interface {
	Record(ctx context.Context, rec ReplyRecord) error
	Close() error
}

// KafkaRecorder implements Recorder using segmentio/kafka-go.
type KafkaRecorder struct {
	writer *kafka.Writer
}

// NewKafkaRecorder creates a recorder writing to the given topic.
func NewKafkaRecorder(brokers []string, topic string) *KafkaRecorder {
	return &KafkaRecorder{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Record publishes one record keyed by tenant slug.
func (r *KafkaRecorder) Record(ctx context.Context, rec ReplyRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal reply record: %w", err)
	}
	if err := r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.TenantSlug),
		Value: value,
	}); err != nil {
		return fmt.Errorf("write reply record: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (r *KafkaRecorder) Close() error {
	return r.writer.Close()
}

// ChannelRecorder is an in-process Recorder implementation backed by a
// Go channel, used in tests and when no brokers are configured.
type ChannelRecorder struct {
	ch chan ReplyRecord
}

// NewChannelRecorder creates an in-process recorder.
func NewChannelRecorder() *ChannelRecorder {
	return &ChannelRecorder{ch: make(chan ReplyRecord, 100)}
}

// Record appends the record, dropping it when the buffer is full.
func (r *ChannelRecorder) Record(_ context.Context, rec ReplyRecord) error {
	select {
	case r.ch <- rec:
	default:
		slog.Warn("reply record dropped, channel full")
	}
	return nil
}

// Records returns the channel of recorded entries.
func (r *ChannelRecorder) Records() <-chan ReplyRecord { return r.ch }

// Close closes the channel.
func (r *ChannelRecorder) Close() error {
	close(r.ch)
	return nil
}
