package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotebook/estimate-system/internal/core/ports"
	"github.com/quotebook/estimate-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256

	// RoutingKeyEstimateSent tags estimate-sent notifications on the broker.
	RoutingKeyEstimateSent = "estimate.sent"

	publishTimeout = 10 * time.Second
)

// Dispatcher hands sent-estimate notifications to a fixed set of workers,
// sharded by estimate id so notifications for one estimate keep their order.
type Dispatcher struct {
	workers   []chan ports.EstimateSentEvent
	publisher ports.Publisher
	log       zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.Publisher, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:   make([]chan ports.EstimateSentEvent, numWorkers),
		publisher: publisher,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.EstimateSentEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue never blocks: when the worker's buffer is full the notification is
// dropped and counted.
func (d *Dispatcher) Enqueue(event ports.EstimateSentEvent) {
	idx := d.shardIndex(event.EstimateID)
	select {
	case d.workers[idx] <- event:
		metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().
			Str("estimate_id", event.EstimateID).
			Int("worker_id", idx).
			Msg("notification queue full, dropping")
	}
}

// shardIndex maps an estimate id deterministically to a worker index.
func (d *Dispatcher) shardIndex(estimateID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(estimateID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.EstimateSentEvent) {
	depth := metrics.NotificationsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()
			d.publish(ctx, id, event)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, workerID int, event ports.EstimateSentEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	start := time.Now()
	err := d.publisher.Publish(ctx, RoutingKeyEstimateSent, event)
	metrics.NotificationPublishDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("estimate_id", event.EstimateID).
			Int("worker_id", workerID).
			Msg("notification publish failed")
		return
	}
	metrics.NotificationsTotal.WithLabelValues("published").Inc()
}
