package engine

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// Checker is the compliance engine interface.
//
// RunCheck applies every registered rule to every descriptor of the matching
// kind and returns the aggregated Report. It never fetches descriptors,
// never publishes, and keeps no state between calls, so concurrent or
// repeated runs are independent.
//
// Per-resource evaluation failures surface as ERROR verdicts; RunCheck has
// no error return. A malformed registry is a programming error and panics.
type Checker interface {
	RunCheck(descriptors []models.ResourceDescriptor) *models.Report
}
