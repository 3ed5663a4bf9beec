package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// S3PublicAccessRule passes a bucket only when its public access block has
// BlockPublicAcls enabled. A bucket with no public access block at all has
// no PublicAccessBlockConfiguration field and yields ERROR, matching the
// S3 API which rejects GetPublicAccessBlock in that case.
func S3PublicAccessRule() Rule {
	return Rule{
		ID:          "public-access",
		Kind:        models.KindBucket,
		Severity:    models.SeverityHigh,
		Description: "S3 bucket public access block does not block public ACLs.",
		Predicate: func(f models.Fields) (bool, error) {
			return fields.Bool(f, "PublicAccessBlockConfiguration.BlockPublicAcls")
		},
	}
}
