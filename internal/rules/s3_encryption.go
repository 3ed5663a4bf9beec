package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// S3EncryptionRule passes a bucket that has a default server-side
// encryption configuration.
func S3EncryptionRule() Rule {
	return Rule{
		ID:          "encryption",
		Kind:        models.KindBucket,
		Severity:    models.SeverityMedium,
		Description: "S3 bucket has no default server-side encryption configuration.",
		Predicate: func(f models.Fields) (bool, error) {
			return fields.Present(f, "ServerSideEncryptionConfiguration")
		},
	}
}
