package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-service/internal/models"
	"github.com/SAP-F-2025/quiz-service/internal/services"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

const (
	GenerationTopic   = "quiz.generation.requested"
	generationHandler = "quiz_generation"

	defaultJobTimeout = 5 * time.Minute
)

var ErrWorkerNotRunning = errors.New("generation worker is not running")

// GenerationHandler applies one generation job. The quiz service implements
// it.
type GenerationHandler interface {
	GenerateQuizContent(ctx context.Context, quizID uuid.UUID, spec models.GenerationSpec) error
}

type GenerationWorkerConfig struct {
	// JobTimeout bounds a single generation run.
	JobTimeout time.Duration
	// Buffer is the number of jobs that may wait for the handler.
	Buffer int64
}

// GenerationWorker is the in-process generation queue. Jobs are published to
// a gochannel topic and consumed by a watermill router that calls the
// handler. Handler failures are logged and the message is acked: the quiz
// service has already recorded the failure on the quiz.
type GenerationWorker struct {
	pubSub   *gochannel.GoChannel
	wmLogger watermill.LoggerAdapter
	logger   *slog.Logger
	timeout  time.Duration

	mu      sync.RWMutex
	router  *message.Router
	running bool
}

func NewGenerationWorker(logger *slog.Logger, config GenerationWorkerConfig) *GenerationWorker {
	if config.JobTimeout <= 0 {
		config.JobTimeout = defaultJobTimeout
	}
	if config.Buffer <= 0 {
		config.Buffer = 64
	}
	wmLogger := watermill.NewSlogLogger(logger)
	return &GenerationWorker{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: config.Buffer,
		}, wmLogger),
		wmLogger: wmLogger,
		logger:   logger,
		timeout:  config.JobTimeout,
	}
}

// Enqueue implements services.GenerationQueue.
func (w *GenerationWorker) Enqueue(ctx context.Context, job services.GenerationJob) error {
	w.mu.RLock()
	running := w.running
	w.mu.RUnlock()
	if !running {
		return ErrWorkerNotRunning
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode generation job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("quiz_id", job.QuizID.String())

	if err := w.pubSub.Publish(GenerationTopic, msg); err != nil {
		return fmt.Errorf("failed to publish generation job: %w", err)
	}
	w.logger.Debug("Generation job queued", "quiz_id", job.QuizID, "message_uuid", msg.UUID)
	return nil
}

// Start subscribes the handler and returns once the router is consuming.
// The router stops when ctx is cancelled or Close is called.
func (w *GenerationWorker) Start(ctx context.Context, handler GenerationHandler) error {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: 30 * time.Second}, w.wmLogger)
	if err != nil {
		return fmt.Errorf("failed to create generation router: %w", err)
	}
	router.AddMiddleware(middleware.Recoverer)
	router.AddNoPublisherHandler(generationHandler, GenerationTopic, w.pubSub, w.handle(ctx, handler))

	go func() {
		if err := router.Run(ctx); err != nil {
			w.logger.Error("Generation router stopped", "error", err)
		}
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	select {
	case <-router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	w.mu.Lock()
	w.router = router
	w.running = true
	w.mu.Unlock()
	w.logger.Info("Generation worker started", "topic", GenerationTopic)
	return nil
}

func (w *GenerationWorker) handle(runCtx context.Context, handler GenerationHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) (err error) {
		// A nacked message is redelivered forever by gochannel, so panics
		// are acked here like any other failure.
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("Generation job panicked", "message_uuid", msg.UUID, "panic", r)
				err = nil
			}
		}()

		// The spec travels in full, including the extracted source text.
		var job services.GenerationJob
		if err := json.Unmarshal(msg.Payload, &job); err != nil {
			w.logger.Error("Dropping malformed generation job", "message_uuid", msg.UUID, "error", err)
			return nil
		}

		ctx, cancel := context.WithTimeout(runCtx, w.timeout)
		defer cancel()

		start := time.Now()
		err = handler.GenerateQuizContent(ctx, job.QuizID, job.Spec)
		switch {
		case err == nil:
			w.logger.Info("Generation job done", "quiz_id", job.QuizID, "duration", time.Since(start))
		case errors.Is(err, services.ErrGenerationSkipped), errors.Is(err, services.ErrQuizNotFound):
			w.logger.Info("Generation job skipped", "quiz_id", job.QuizID, "reason", err)
		default:
			w.logger.Warn("Generation job failed", "quiz_id", job.QuizID, "duration", time.Since(start), "error", err)
		}
		return nil
	}
}

// Close stops the router and the underlying pub/sub.
func (w *GenerationWorker) Close() error {
	w.mu.Lock()
	router := w.router
	w.router = nil
	w.running = false
	w.mu.Unlock()

	var errs []error
	if router != nil {
		errs = append(errs, router.Close())
	}
	errs = append(errs, w.pubSub.Close())
	return errors.Join(errs...)
}
