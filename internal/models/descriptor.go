package models

import (
	"fmt"
	"strings"
)

// Kind identifies the class of cloud resource a descriptor describes.
type Kind string

const (
	KindSecurityGroup Kind = "SecurityGroup"
	KindBucket        Kind = "Bucket"
	KindRole          Kind = "Role"
	KindCluster       Kind = "Cluster"
)

// Kinds lists every supported kind in canonical order. Batches and reports
// that are sorted by kind use this order.
var Kinds = []Kind{KindSecurityGroup, KindBucket, KindRole, KindCluster}

// ParseKind returns the Kind named by s. Matching is case-insensitive.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q; valid values: SecurityGroup, Bucket, Role, Cluster", s)
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k.Rank() < len(Kinds)
}

// Rank returns the position of k in Kinds, or len(Kinds) for unknown kinds.
func (k Kind) Rank() int {
	for i, kk := range Kinds {
		if kk == k {
			return i
		}
	}
	return len(Kinds)
}

// Fields is the schema-free configuration snapshot of one resource.
// Values are restricted to the JSON data model: map[string]any, []any,
// string, bool, float64 and nil.
type Fields map[string]any

// ResourceDescriptor is a normalised snapshot of one cloud resource taken at
// check time. It is the sole input to rule predicates and must be treated as
// immutable once the fetcher returns it.
type ResourceDescriptor struct {
	Kind Kind   `json:"kind"`
	ID   string `json:"id"`

	// Name and Region are informational; predicates never read them.
	Name   string `json:"name,omitempty"`
	Region string `json:"region,omitempty"`

	Fields Fields `json:"fields"`
}
