package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/lawaid/soulsystem-backend/models"
	aws_pkg "github.com/lawaid/soulsystem-backend/pkg/aws"

	"go.uber.org/zap"
)

const notifyTimeout = 5 * time.Second

// MetricsRecorder counts business events.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

var eventMetrics = map[string]string{
	models.EventOrderCreated:       aws_pkg.MetricOrdersCreated,
	models.EventCheckoutCreated:    aws_pkg.MetricCheckoutsCreated,
	models.EventPaymentVerified:    aws_pkg.MetricPaymentVerified,
	models.EventIdentityRegistered: aws_pkg.MetricIdentityRegistered,
}

// Notifier publishes committed registry changes to SNS and CloudWatch off
// the request path. Delivery is best-effort: failures are logged and never
// fail the request.
type Notifier struct {
	sns      aws_pkg.SNSPublisher
	topicArn string
	metrics  MetricsRecorder
	logger   *zap.Logger
	inflight sync.WaitGroup
}

// NewNotifier accepts nil collaborators; missing ones are skipped.
func NewNotifier(sns aws_pkg.SNSPublisher, topicArn string, metrics MetricsRecorder, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{sns: sns, topicArn: topicArn, metrics: metrics, logger: logger}
}

// Notify emits event in the background and returns immediately. Delivery
// outlives ctx's cancellation but is bounded by notifyTimeout. A nil
// Notifier is a no-op.
func (n *Notifier) Notify(ctx context.Context, event models.RegistryEvent) {
	if n == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		n.deliver(sendCtx, event)
	}()
}

// Wait blocks until every pending delivery has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.inflight.Wait()
}

func (n *Notifier) deliver(ctx context.Context, event models.RegistryEvent) {

	if n.metrics != nil {
		if name, ok := eventMetrics[event.Type]; ok {
			if err := n.metrics.RecordCount(ctx, name, map[string]string{"Service": "soulsystem"}); err != nil {
				n.logger.Warn("Failed to record metric", zap.String("metric", name), zap.Error(err))
			}
		}
	}

	if n.sns == nil || n.topicArn == "" {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("Failed to marshal registry event", zap.String("event_type", event.Type), zap.Error(err))
		return
	}
	if err := n.sns.Publish(ctx, n.topicArn, payload); err != nil {
		n.logger.Error("Failed to publish registry event to SNS",
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
		return
	}
	n.logger.Info("Registry event published to SNS", zap.String("event_type", event.Type))
}
