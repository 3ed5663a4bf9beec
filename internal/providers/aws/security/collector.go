package awssecurity

import (
	"context"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// Collector fetches resource descriptors for the requested kinds.
//
// Implementations must never apply business logic or produce verdicts.
// A kind that cannot be fetched is reported in Batch.Errors so the rest of
// the check can complete. The returned error is non-nil only when ctx ends
// or kinds names an unknown kind.
type Collector interface {
	Collect(ctx context.Context, kinds []models.Kind) (*Batch, error)
}
