package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/classreg-api/internal/models"
	"github.com/noah-isme/classreg-api/pkg/jobs"
)

// Notifier receives structured intents from the engine. Implementations hand
// them to the delivery collaborator; a dispatch failure is logged and
// swallowed, never propagated back into the enrollment decision.
type Notifier interface {
	Notify(ctx context.Context, intent models.NotificationIntent)
}

// Sink is the delivery boundary. The real system plugs a messaging gateway
// in here; the shipped implementation just logs.
type Sink interface {
	Deliver(ctx context.Context, intent models.NotificationIntent) error
}

// LogSink writes intents to the structured log. Useful as a development
// stand-in for the delivery collaborator.
type LogSink struct {
	Logger *zap.Logger
}

// Deliver implements Sink.
func (s LogSink) Deliver(_ context.Context, intent models.NotificationIntent) error {
	s.Logger.Info("notification intent",
		zap.String("student_id", intent.StudentID),
		zap.String("kind", string(intent.Kind)),
		zap.Any("params", intent.Params))
	return nil
}

// QueueNotifier dispatches intents asynchronously over the in-memory job
// queue so slow delivery never sits inside an atomic section.
type QueueNotifier struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewQueueNotifier wires a sink behind a worker queue.
func NewQueueNotifier(sink Sink, cfg jobs.QueueConfig) *QueueNotifier {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		intent, ok := job.Payload.(models.NotificationIntent)
		if !ok {
			logger.Warn("dropping malformed notification job", zap.String("job_id", job.ID))
			return nil
		}
		return sink.Deliver(ctx, intent)
	}
	return &QueueNotifier{queue: jobs.NewQueue("notifications", handler, cfg), logger: logger}
}

// Start launches the dispatch workers.
func (n *QueueNotifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop drains the workers.
func (n *QueueNotifier) Stop() {
	n.queue.Stop()
}

// Notify enqueues the intent. Failures are logged and dropped.
func (n *QueueNotifier) Notify(_ context.Context, intent models.NotificationIntent) {
	job := jobs.Job{ID: uuid.NewString(), Type: string(intent.Kind), Payload: intent}
	if err := n.queue.Enqueue(job); err != nil {
		n.logger.Warn("notification intent dropped",
			zap.String("student_id", intent.StudentID),
			zap.String("kind", string(intent.Kind)),
			zap.Error(err))
	}
}
