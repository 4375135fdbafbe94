// Package stream decodes DynamoDB Streams events into engine items so
// downstream consumers (fan-out, counters, projections) work with the
// same value types as the rest of the system.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/tessera-db/tessera/engine"
	"github.com/tessera-db/tessera/internal/keyfmt"
)

// Change is one decoded table mutation. Old and New are nil for event
// types that do not carry the respective image.
type Change struct {
	// EventName is "INSERT", "MODIFY", or "REMOVE".
	EventName string

	// EventID is the stream record's unique identifier.
	EventID string

	// EntityType is the leading segment of the partition key value
	// (e.g. "USER" for "USER#123").
	EntityType string

	// Key identifies the changed item.
	Key engine.Key

	// Old is the item image before the change.
	Old engine.Item

	// New is the item image after the change.
	New engine.Item
}

// Decoder converts stream records keyed by the given attribute names.
type Decoder struct {
	// PartitionAttr is the table's partition key attribute name.
	PartitionAttr string

	// SortAttr is the table's sort key attribute name.
	SortAttr string
}

// NewDecoder returns a Decoder for the default "PK"/"SK" key attributes.
func NewDecoder() *Decoder {
	return &Decoder{PartitionAttr: "PK", SortAttr: "SK"}
}

// DecodeRecord converts one stream record into a Change.
func (d *Decoder) DecodeRecord(record events.DynamoDBEventRecord) (Change, error) {
	key, err := d.decodeKey(record.Change.Keys)
	if err != nil {
		return Change{}, fmt.Errorf("record %s: %w", record.EventID, err)
	}

	change := Change{
		EventName: record.EventName,
		EventID:   record.EventID,
		Key:       key,
	}
	change.EntityType, _ = keyfmt.Split(key.Partition)

	if record.Change.OldImage != nil {
		if change.Old, err = decodeImage(record.Change.OldImage); err != nil {
			return Change{}, fmt.Errorf("record %s old image: %w", record.EventID, err)
		}
	}
	if record.Change.NewImage != nil {
		if change.New, err = decodeImage(record.Change.NewImage); err != nil {
			return Change{}, fmt.Errorf("record %s new image: %w", record.EventID, err)
		}
	}
	return change, nil
}

// DecodeEvent converts every record in an event, in order.
func (d *Decoder) DecodeEvent(event events.DynamoDBEvent) ([]Change, error) {
	changes := make([]Change, 0, len(event.Records))
	for _, record := range event.Records {
		change, err := d.DecodeRecord(record)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, nil
}

func (d *Decoder) decodeKey(keys map[string]events.DynamoDBAttributeValue) (engine.Key, error) {
	pk, ok := keys[d.PartitionAttr]
	if !ok || pk.DataType() != events.DataTypeString {
		return engine.Key{}, fmt.Errorf("key attribute %q missing or not a string", d.PartitionAttr)
	}
	sk, ok := keys[d.SortAttr]
	if !ok || sk.DataType() != events.DataTypeString {
		return engine.Key{}, fmt.Errorf("key attribute %q missing or not a string", d.SortAttr)
	}
	return engine.Key{Partition: pk.String(), Sort: sk.String()}, nil
}

// decodeImage converts a stream item image into an engine Item.
func decodeImage(image map[string]events.DynamoDBAttributeValue) (engine.Item, error) {
	item := make(engine.Item, len(image))
	for name, av := range image {
		v, err := decodeValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		item[name] = v
	}
	return item, nil
}

// decodeValue converts one stream attribute value. Numbers classify
// through the engine's rule: zero fractional part reads as an integer.
func decodeValue(av events.DynamoDBAttributeValue) (engine.Value, error) {
	switch av.DataType() {
	case events.DataTypeNull:
		return engine.NullValue(), nil
	case events.DataTypeString:
		return engine.StringValue(av.String()), nil
	case events.DataTypeNumber:
		return engine.NumberValue(av.Number())
	case events.DataTypeBoolean:
		return engine.BoolValue(av.Boolean()), nil
	case events.DataTypeMap:
		m := make(map[string]engine.Value, len(av.Map()))
		for k, mav := range av.Map() {
			v, err := decodeValue(mav)
			if err != nil {
				return engine.Value{}, err
			}
			m[k] = v
		}
		return engine.MapValue(m), nil
	case events.DataTypeList:
		l := make([]engine.Value, 0, len(av.List()))
		for _, lav := range av.List() {
			v, err := decodeValue(lav)
			if err != nil {
				return engine.Value{}, err
			}
			l = append(l, v)
		}
		return engine.ListValue(l), nil
	}
	return engine.Value{}, fmt.Errorf("unsupported stream attribute type %v", av.DataType())
}

// Handler adapts a per-change callback into an AWS Lambda stream
// handler. A failing record stops processing and returns its error so
// the batch is retried and eventually dead-lettered.
type Handler struct {
	decoder *Decoder
	fn      func(context.Context, Change) error
	logger  *slog.Logger
}

// NewHandler creates a stream handler invoking fn for every change.
func NewHandler(decoder *Decoder, fn func(context.Context, Change) error, logger *slog.Logger) *Handler {
	if decoder == nil {
		decoder = NewDecoder()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{decoder: decoder, fn: fn, logger: logger}
}

// HandleEvent processes a stream event record by record.
func (h *Handler) HandleEvent(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		change, err := h.decoder.DecodeRecord(record)
		if err != nil {
			h.logger.Error("failed to decode record",
				"eventID", record.EventID,
				"error", err,
			)
			return err
		}
		if err := h.fn(ctx, change); err != nil {
			h.logger.Error("failed to process change",
				"eventID", change.EventID,
				"entityType", change.EntityType,
				"error", err,
			)
			return err
		}
	}
	return nil
}
