package infrastructure

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"codeDuelWs/internal/modules/race/application/port"
)

// KafkaRaceEventSink publishes race lifecycle events to a Kafka topic for
// downstream analytics. Writes happen on their own goroutine with a bounded
// deadline; a slow or absent broker never stalls a race.
type KafkaRaceEventSink struct {
	writer *kafka.Writer
}

func NewKafkaRaceEventSink(brokers []string, topic string) *KafkaRaceEventSink {
	return &KafkaRaceEventSink{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

const (
	eventKindRaceStarted  = "race_started"
	eventKindRaceFinished = "race_finished"
)

type raceEventRecord struct {
	Kind string `json:"kind"`
	port.RaceEvent
}

func (s *KafkaRaceEventSink) RaceStarted(ctx context.Context, event port.RaceEvent) {
	s.publish(eventKindRaceStarted, event)
}

func (s *KafkaRaceEventSink) RaceFinished(ctx context.Context, event port.RaceEvent) {
	s.publish(eventKindRaceFinished, event)
}

func (s *KafkaRaceEventSink) publish(kind string, event port.RaceEvent) {
	data, err := json.Marshal(raceEventRecord{Kind: kind, RaceEvent: event})
	if err != nil {
		slog.Error("race event marshal error", slog.Any("error", err))
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.RoomID),
			Value: data,
		})
		if err != nil {
			slog.Warn("race event publish failed", slog.String("kind", kind), slog.String("roomId", event.RoomID), slog.Any("error", err))
		}
	}()
}

// Close flushes and closes the underlying writer.
func (s *KafkaRaceEventSink) Close() error {
	return s.writer.Close()
}

var _ port.RaceEventSink = (*KafkaRaceEventSink)(nil)
