package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/policy"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
)

// AlertSubject is the SNS subject of every alert.
const AlertSubject = "Security Check Failures Detected"

// MaxMessageBytes is the SNS limit on a message body.
const MaxMessageBytes = 256 * 1024

// alertMessage is the JSON body of an alert. Report carries the whole report
// when it fits in MaxMessageBytes; otherwise Verdicts holds as many FAIL
// verdicts as fit and Truncated is set.
type alertMessage struct {
	Severity  models.Severity  `json:"severity"`
	Timestamp time.Time        `json:"timestamp"`
	Failures  int              `json:"failures"`
	ReportID  string           `json:"report_id,omitempty"`
	Report    *models.Report   `json:"report,omitempty"`
	Verdicts  []models.Verdict `json:"verdicts,omitempty"`
	Truncated bool             `json:"truncated,omitempty"`
}

// SNSPublisher sends an alert when a report has at least one FAIL verdict at
// or above minSeverity. Reports with only PASS or ERROR verdicts are not
// alerted on.
type SNSPublisher struct {
	client      common.SNSClient
	topicARN    string
	minSeverity models.Severity
}

func NewSNSPublisher(client common.SNSClient, topicARN string, minSeverity models.Severity) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN, minSeverity: minSeverity}
}

func (p *SNSPublisher) Publish(ctx context.Context, report *models.Report) error {
	if report.TotalFailures() == 0 || !policy.FailsAt(report, p.minSeverity) {
		return nil
	}

	body, err := encodeAlert(report)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(AlertSubject),
		Message:  aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publish alert to %s: %w", p.topicARN, err)
	}
	return nil
}

// encodeAlert renders the alert body, falling back to a bounded message with
// a prefix of the FAIL verdicts when the full report exceeds MaxMessageBytes.
func encodeAlert(report *models.Report) ([]byte, error) {
	sev, _ := report.HighestFailingSeverity()
	msg := alertMessage{
		Severity:  sev,
		Timestamp: report.GeneratedAt,
		Failures:  report.TotalFailures(),
		Report:    report,
	}
	body, err := json.Marshal(msg)
	if err != nil || len(body) <= MaxMessageBytes {
		return body, err
	}

	failures := report.Failures()
	msg.Report = nil
	msg.ReportID = report.ReportID
	msg.Truncated = true

	// Largest prefix of failures whose encoding still fits.
	var encErr error
	n := sort.Search(len(failures)+1, func(i int) bool {
		msg.Verdicts = failures[:i]
		b, err := json.Marshal(msg)
		if err != nil {
			encErr = err
			return true
		}
		return len(b) > MaxMessageBytes
	}) - 1
	if encErr != nil {
		return nil, encErr
	}
	if n < 0 {
		n = 0
	}
	msg.Verdicts = failures[:n]
	return json.Marshal(msg)
}
