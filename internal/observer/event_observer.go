package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RunEvent represents one event emitted during a test run
type RunEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImagePath      string                 `json:"image_path,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of run event
type EventType string

const (
	// RunStarted when a test run begins
	RunStarted EventType = "run_started"
	// ImagePulled when an image is copied off the device
	ImagePulled EventType = "image_pulled"
	// ImagePullFailed when a device pull fails
	ImagePullFailed EventType = "image_pull_failed"
	// ImageAnalyzed when all analyzers finished on one image
	ImageAnalyzed EventType = "image_analyzed"
	// ImageSkipped when an image could not be decoded
	ImageSkipped EventType = "image_skipped"
	// ReportGenerated when the report document was written
	ReportGenerated EventType = "report_generated"
	// RunFailed when the run aborts
	RunFailed EventType = "run_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event RunEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event RunEvent)
}

// LoggingObserver logs run events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles run events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event RunEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ImagePath != "" {
		fields["image_path"] = event.ImagePath
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.Metadata != nil {
		for k, v := range event.Metadata {
			fields[k] = v
		}
	}

	switch event.EventType {
	case RunStarted:
		o.logger.WithFields(fields).Info("Camera test run started")
	case ImagePulled:
		o.logger.WithFields(fields).Debug("Image pulled from device")
	case ImagePullFailed:
		o.logger.WithFields(fields).Error("Image pull failed")
	case ImageAnalyzed:
		o.logger.WithFields(fields).Info("Image analysis completed")
	case ImageSkipped:
		o.logger.WithFields(fields).Warn("Image skipped")
	case ReportGenerated:
		o.logger.WithFields(fields).Info("Report generated")
	case RunFailed:
		o.logger.WithFields(fields).Error("Camera test run failed")
	default:
		o.logger.WithFields(fields).Info("Run event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from run events
type MetricsObserver struct {
	mu                  sync.RWMutex
	analyzedImages      int64
	skippedImages       int64
	pullFailures        int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() Observer {
	return &MetricsObserver{}
}

// OnEvent handles run events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event RunEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case ImageAnalyzed:
		o.analyzedImages++
		o.totalProcessingTime += event.ProcessingTime
	case ImageSkipped:
		o.skippedImages++
	case ImagePullFailed:
		o.pullFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.analyzedImages > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.analyzedImages)
	}

	return map[string]interface{}{
		"analyzed_images":       o.analyzedImages,
		"skipped_images":        o.skippedImages,
		"pull_failures":         o.pullFailures,
		"total_processing_time": o.totalProcessingTime,
		"avg_processing_time":   avgProcessingTime,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event RunEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		go func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
