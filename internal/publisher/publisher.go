// Package publisher delivers check reports to their consumers: CloudWatch
// metrics, SNS alerts, Prometheus gauges and the structured log.
package publisher

import (
	"context"
	"errors"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// Publisher outputs a finished report to a backend.
type Publisher interface {
	// Publish delivers report. It must not modify it.
	Publish(ctx context.Context, report *models.Report) error
}

// MultiPublisher fans out to multiple publishers.
type MultiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher creates a publisher that sends to every backend.
func NewMultiPublisher(publishers ...Publisher) *MultiPublisher {
	return &MultiPublisher{publishers: publishers}
}

// Publish sends to all publishers, even after a failure, and returns the
// joined errors.
func (m *MultiPublisher) Publish(ctx context.Context, report *models.Report) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of wrapped publishers.
func (m *MultiPublisher) Len() int { return len(m.publishers) }
