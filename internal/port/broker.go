package port

import (
	"context"

	"github.com/dontpanicw/ClinicMedia/internal/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event domain.MediaEvent) error
	Close() error
}
