package printer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/order"
	"github.com/noah-isme/backend-kasir/internal/queue"
	"github.com/noah-isme/backend-kasir/internal/receipt"
)

// Job kinds on the print queue.
const (
	KindReceipt = "receipt"
	KindKitchen = "kitchen"
)

// printJob is the queue payload for one document.
type printJob struct {
	Kind    string `json:"kind"`
	OrderID string `json:"orderId"`
	Content string `json:"content"`
}

// OrderSource loads an order with its recomputed totals.
type OrderSource interface {
	Get(ctx context.Context, id string) (order.View, error)
}

// Spooler listens for order events and spools rendered documents onto the
// print queue. Rendering happens here so the worker only has to move bytes.
type Spooler struct {
	Q      queue.Enqueuer
	Orders OrderSource
	Opts   receipt.Options
	Log    zerolog.Logger
}

// Notify implements events.Notifier.
func (s Spooler) Notify(ctx context.Context, ev events.Event) error {
	switch ev.Topic {
	case events.TopicOrderCreated:
		return s.spool(ctx, KindKitchen, ev.AggregateID)
	case events.TopicOrderPaid:
		return s.spool(ctx, KindReceipt, ev.AggregateID)
	case events.TopicOrderCombinedPaid:
		var p struct {
			MemberIDs []string `json:"memberIds"`
		}
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("printer: decode combined payload: %w", err)
		}
		for _, id := range p.MemberIDs {
			if err := s.spool(ctx, KindReceipt, id); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s Spooler) spool(ctx context.Context, kind, orderID string) error {
	if s.Orders == nil {
		return nil
	}
	view, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("printer: load order %s: %w", orderID, err)
	}
	var content string
	switch kind {
	case KindKitchen:
		content = receipt.RenderKitchenTicket(view.Order, time.Now(), s.Opts)
	default:
		content = receipt.Render(view.Order, view.Totals, s.Opts)
	}
	raw, err := json.Marshal(printJob{Kind: kind, OrderID: orderID, Content: content})
	if err != nil {
		return err
	}
	if err := s.Q.Enqueue(ctx, queue.Job{
		Kind:           kind,
		Payload:        raw,
		IdempotencyKey: kind + ":" + orderID,
	}); err != nil {
		return fmt.Errorf("printer: enqueue %s for %s: %w", kind, orderID, err)
	}
	s.Log.Debug().Str("kind", kind).Str("order_id", orderID).Msg("print job spooled")
	return nil
}

// Handler returns the queue callback that sends spooled documents to the
// bridge. Malformed payloads are dropped, transient bridge failures are
// returned so the queue retries them.
func Handler(cl *Client, log zerolog.Logger) func(context.Context, queue.Job) error {
	return func(ctx context.Context, job queue.Job) error {
		var p printJob
		if err := json.Unmarshal(job.Payload, &p); err != nil {
			log.Error().Err(err).Str("kind", job.Kind).Msg("dropping malformed print job")
			return nil
		}
		start := time.Now()
		err := cl.Print(ctx, p.Kind, p.Content)
		result := "ok"
		if err != nil {
			result = "error"
		}
		if obs.PrintAttemptLatency != nil {
			obs.PrintAttemptLatency.WithLabelValues(result).Observe(float64(time.Since(start).Milliseconds()))
		}
		if obs.PrintJobsTotal != nil {
			obs.PrintJobsTotal.WithLabelValues(p.Kind, result).Inc()
		}
		if err != nil {
			if job.MaxAttempts > 0 && job.Attempt >= job.MaxAttempts && obs.PrintDLQTotal != nil {
				obs.PrintDLQTotal.Inc()
			}
			return err
		}
		return nil
	}
}
