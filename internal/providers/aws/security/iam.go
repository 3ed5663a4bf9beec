package awssecurity

import (
	"context"
	"fmt"
	"net/url"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// fetchRoles lists every IAM role with its decoded inline policy documents.
// If any inline policy cannot be read, InlinePolicies is unavailable for
// that role as a whole.
func fetchRoles(ctx context.Context, client iamAPIClient, match *regexp.Regexp, logger zerolog.Logger) ([]models.ResourceDescriptor, error) {
	paginator := iamsvc.NewListRolesPaginator(client, &iamsvc.ListRolesInput{})

	var out []models.ResourceDescriptor
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return out, fmt.Errorf("list IAM roles: %w", err)
		}
		for _, r := range page.Roles {
			name := aws.ToString(r.RoleName)
			if !matches(match, name) {
				continue
			}

			f := models.Fields{
				"RoleName": name,
				"Arn":      aws.ToString(r.Arn),
				"Path":     aws.ToString(r.Path),
			}
			if r.AssumeRolePolicyDocument != nil {
				doc, err := decodePolicyDocument(aws.ToString(r.AssumeRolePolicyDocument))
				if err != nil {
					f["AssumeRolePolicyDocument"] = fields.Unavailable{Reason: err.Error()}
				} else {
					f["AssumeRolePolicyDocument"] = doc
				}
			}

			policies, err := inlinePolicies(ctx, client, name)
			if err != nil {
				logger.Debug().Err(err).Str("role", name).Msg("read inline policies failed")
				f["InlinePolicies"] = fields.Unavailable{Reason: err.Error()}
			} else {
				f["InlinePolicies"] = policies
			}

			out = append(out, models.ResourceDescriptor{
				Kind:   models.KindRole,
				ID:     name,
				Name:   name,
				Fields: f,
			})
		}
	}
	return out, nil
}

// inlinePolicies returns [{PolicyName, PolicyDocument}] for role.
func inlinePolicies(ctx context.Context, client iamAPIClient, role string) ([]any, error) {
	paginator := iamsvc.NewListRolePoliciesPaginator(client, &iamsvc.ListRolePoliciesInput{
		RoleName: aws.String(role),
	})

	policies := []any{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list inline policies of %s: %w", role, err)
		}
		for _, policyName := range page.PolicyNames {
			resp, err := client.GetRolePolicy(ctx, &iamsvc.GetRolePolicyInput{
				RoleName:   aws.String(role),
				PolicyName: aws.String(policyName),
			})
			if err != nil {
				return nil, fmt.Errorf("get inline policy %s of %s: %w", policyName, role, err)
			}
			doc, err := decodePolicyDocument(aws.ToString(resp.PolicyDocument))
			if err != nil {
				return nil, fmt.Errorf("inline policy %s of %s: %w", policyName, role, err)
			}
			policies = append(policies, map[string]any{
				"PolicyName":     policyName,
				"PolicyDocument": doc,
			})
		}
	}
	return policies, nil
}

// decodePolicyDocument turns the URL-encoded JSON returned by IAM into a
// field tree.
func decodePolicyDocument(encoded string) (any, error) {
	raw, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, fmt.Errorf("unescape policy document: %w", err)
	}
	return fields.FromJSON([]byte(raw))
}
