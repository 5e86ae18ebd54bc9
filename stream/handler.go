// Package stream decodes DynamoDB Streams records into mapped structs.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/lattice/mapping"
)

// Stream event names.
const (
	EventInsert = "INSERT"
	EventModify = "MODIFY"
	EventRemove = "REMOVE"
)

// Change is one decoded stream record. Old is nil for inserts and New is nil
// for removals, as are images the stream view type does not include.
type Change[T any] struct {
	EventID   string
	EventName string
	Keys      mapping.PK
	Old       *T
	New       *T
}

// ApplyFunc receives each decoded change.
type ApplyFunc[T any] func(ctx context.Context, change Change[T]) error

// Handler decodes stream records of T's table and passes them to an ApplyFunc.
type Handler[T any] struct {
	mapping *mapping.ResolvedMapping
	apply   ApplyFunc[T]
	logger  *slog.Logger
}

// NewHandler resolves T in reg and creates a handler for its table.
func NewHandler[T any](reg *mapping.Registry, apply ApplyFunc[T], logger *slog.Logger) (*Handler[T], error) {
	m, err := mapping.Resolve[T](reg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler[T]{
		mapping: m,
		apply:   apply,
		logger:  logger,
	}, nil
}

// Mapping returns the resolved mapping records are decoded with.
func (h *Handler[T]) Mapping() *mapping.ResolvedMapping {
	return h.mapping
}

// Handle processes a stream event. It is designed to be used as an AWS Lambda
// handler. Records from other tables are skipped. The first decode or apply
// error stops processing so the batch is retried.
func (h *Handler[T]) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"table", h.mapping.Table(),
				"error", err,
			)
			return err
		}
	}
	return nil
}

func (h *Handler[T]) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if table := tableFromARN(record.EventSourceArn); table != "" && table != h.mapping.Table() {
		h.logger.Debug("skipping record from other table",
			"eventID", record.EventID,
			"table", table,
		)
		return nil
	}

	change := Change[T]{
		EventID:   record.EventID,
		EventName: record.EventName,
		Keys:      ConvertStreamKey(record.Change.Keys),
	}

	var err error
	switch record.EventName {
	case EventInsert:
		change.New, err = h.decode(record.Change.NewImage)
	case EventModify:
		if change.Old, err = h.decode(record.Change.OldImage); err == nil {
			change.New, err = h.decode(record.Change.NewImage)
		}
	case EventRemove:
		change.Old, err = h.decode(record.Change.OldImage)
	default:
		h.logger.Warn("unknown stream event",
			"eventID", record.EventID,
			"eventName", record.EventName,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode %s record %s: %w", record.EventName, record.EventID, err)
	}

	return h.apply(ctx, change)
}

// decode returns nil for an empty image.
func (h *Handler[T]) decode(image map[string]events.DynamoDBAttributeValue) (*T, error) {
	if len(image) == 0 {
		return nil, nil
	}
	out := new(T)
	if err := Decode(h.mapping, image, out); err != nil {
		return nil, err
	}
	return out, nil
}

// tableFromARN extracts the table name from a stream ARN of the form
// arn:aws:dynamodb:region:account:table/NAME/stream/LABEL.
func tableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	table, _, _ := strings.Cut(rest, "/")
	return table
}
