package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kmadk/windborne-stratosphere/internal/fleet"
)

// HourMessage is the payload published for each hour of a fleet load.
type HourMessage struct {
	LoadID   string             `json:"loadId"`
	LoadedAt time.Time          `json:"loadedAt"`
	Hour     int                `json:"hour"`
	Report   fleet.HourReport   `json:"report"`
	Records  fleet.HourSnapshot `json:"records"`
}

// messageWriter is the part of kafkago.Writer the exporter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes hour snapshots of every fleet load to a Kafka topic.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the snapshot topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, topic: topic, logger: logger}
}

// Export publishes the 24 hour snapshots of a load in a single WriteMessages
// call. Messages for the same hour slot land on the same partition.
func (w *Writer) Export(ctx context.Context, ds *fleet.FleetDataset) error {
	msgs := make([]kafkago.Message, 0, fleet.HoursPerDay)
	for hour := 0; hour < fleet.HoursPerDay; hour++ {
		msg, err := serializeToMessage(ds, hour)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish load %s: %w", ds.LoadID, err)
	}
	w.logger.Debug("exported fleet load", "load_id", ds.LoadID, "topic", w.topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one hour of a load into a Kafka message.
func serializeToMessage(ds *fleet.FleetDataset, hour int) (kafkago.Message, error) {
	records := ds.Hours[hour]
	if records == nil {
		records = fleet.HourSnapshot{}
	}
	data, err := json.Marshal(HourMessage{
		LoadID:   ds.LoadID,
		LoadedAt: ds.LoadedAt,
		Hour:     hour,
		Report:   ds.Reports[hour],
		Records:  records,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize hour %d: %w", hour, err)
	}
	return kafkago.Message{
		Key:   []byte(fmt.Sprintf("hour-%02d", hour)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "load_id", Value: []byte(ds.LoadID)},
			{Key: "hour", Value: []byte(strconv.Itoa(hour))},
			{Key: "loaded_at", Value: []byte(ds.LoadedAt.Format(time.RFC3339))},
		},
	}, nil
}
