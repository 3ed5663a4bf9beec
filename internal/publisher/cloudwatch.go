package publisher

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
)

// severityDimension labels the per-severity failure datums.
const severityDimension = "Severity"

// CloudWatchPublisher records the FAIL total of each report as a custom
// metric, plus one datum per severity under the Severity dimension.
// ERROR verdicts are not counted.
type CloudWatchPublisher struct {
	client     common.CloudWatchClient
	namespace  string
	metricName string
}

func NewCloudWatchPublisher(client common.CloudWatchClient, namespace, metricName string) *CloudWatchPublisher {
	return &CloudWatchPublisher{client: client, namespace: namespace, metricName: metricName}
}

func (p *CloudWatchPublisher) Publish(ctx context.Context, report *models.Report) error {
	ts := aws.Time(report.GeneratedAt)

	data := []cwtypes.MetricDatum{{
		MetricName: aws.String(p.metricName),
		Value:      aws.Float64(float64(report.TotalFailures())),
		Unit:       cwtypes.StandardUnitCount,
		Timestamp:  ts,
	}}
	for _, sev := range models.Severities {
		data = append(data, cwtypes.MetricDatum{
			MetricName: aws.String(p.metricName),
			Dimensions: []cwtypes.Dimension{{
				Name:  aws.String(severityDimension),
				Value: aws.String(string(sev)),
			}},
			Value:     aws.Float64(float64(report.FailureCountsBySeverity[sev])),
			Unit:      cwtypes.StandardUnitCount,
			Timestamp: ts,
		})
	}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: data,
	})
	if err != nil {
		return fmt.Errorf("put metric %s/%s: %w", p.namespace, p.metricName, err)
	}
	return nil
}
