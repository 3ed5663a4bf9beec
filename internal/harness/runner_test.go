package harness

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/secmon/internal/engine"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/secmon/internal/rulepacks/security"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
)

type fakeCollector struct {
	batch *awssecurity.Batch
	err   error
	block bool
	kinds []models.Kind
}

func (f *fakeCollector) Collect(ctx context.Context, kinds []models.Kind) (*awssecurity.Batch, error) {
	f.kinds = kinds
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.batch, f.err
}

type fakePublisher struct {
	reports []*models.Report
	err     error
	block   bool
}

func (f *fakePublisher) Publish(ctx context.Context, r *models.Report) error {
	f.reports = append(f.reports, r)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

type fakeArchive struct {
	saved []*models.Report
	err   error
}

func (f *fakeArchive) Save(r *models.Report) error {
	f.saved = append(f.saved, r)
	return f.err
}

func insecureCluster() models.ResourceDescriptor {
	return models.ResourceDescriptor{
		Kind: models.KindCluster,
		ID:   "demo-eks",
		Fields: models.Fields{
			"resourcesVpcConfig": map[string]any{"endpointPrivateAccess": false},
			"encryptionConfig":   nil,
			"logging":            map[string]any{"clusterLogging": []any{map[string]any{"enabled": false}}},
		},
	}
}

func newChecker() engine.Checker {
	reg := rules.NewDefaultRegistry()
	reg.MustRegister(security.New()...)
	return engine.NewDefaultEngine(reg)
}

func TestRunOnce_PublishesAndArchives(t *testing.T) {
	col := &fakeCollector{batch: &awssecurity.Batch{
		Descriptors: []models.ResourceDescriptor{insecureCluster()},
		Errors:      map[models.Kind]error{},
	}}
	pub := &fakePublisher{}
	arc := &fakeArchive{}
	r := NewRunner(col, newChecker(), pub, Options{Timeout: time.Minute, Archive: arc, Logger: zerolog.Nop()})

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, models.Kinds, col.kinds, "empty kinds means all kinds")
	assert.Equal(t, 3, report.TotalFailures())
	require.Len(t, pub.reports, 1)
	assert.Same(t, report, pub.reports[0])
	require.Len(t, arc.saved, 1)
}

func TestRunOnce_PartialFetchProceeds(t *testing.T) {
	col := &fakeCollector{batch: &awssecurity.Batch{
		Descriptors: []models.ResourceDescriptor{insecureCluster()},
		Errors:      map[models.Kind]error{models.KindBucket: errors.New("AccessDenied")},
	}}
	pub := &fakePublisher{}
	r := NewRunner(col, newChecker(), pub, Options{
		Kinds:  []models.Kind{models.KindBucket, models.KindCluster},
		Logger: zerolog.Nop(),
	})

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Verdicts, 3)
	assert.Len(t, pub.reports, 1)
}

func TestRunOnce_EveryKindFails(t *testing.T) {
	col := &fakeCollector{batch: &awssecurity.Batch{
		Errors: map[models.Kind]error{
			models.KindBucket: errors.New("bucket denied"),
			models.KindRole:   errors.New("role denied"),
		},
	}}
	pub := &fakePublisher{}
	r := NewRunner(col, newChecker(), pub, Options{
		Kinds:  []models.Kind{models.KindBucket, models.KindRole},
		Logger: zerolog.Nop(),
	})

	report, err := r.RunOnce(context.Background())
	assert.Nil(t, report)

	var rf *RunFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, StageFetch, rf.Stage)
	assert.Contains(t, err.Error(), "role denied")
	assert.Empty(t, pub.reports)
}

func TestRunOnce_TimeoutSkipsCycle(t *testing.T) {
	col := &fakeCollector{block: true}
	pub := &fakePublisher{}
	r := NewRunner(col, newChecker(), pub, Options{Timeout: 10 * time.Millisecond, Logger: zerolog.Nop()})

	report, err := r.RunOnce(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrCycleSkipped)
	assert.Empty(t, pub.reports)
}

func TestRunOnce_TimeoutDuringPublishSkipsCycle(t *testing.T) {
	col := &fakeCollector{batch: &awssecurity.Batch{
		Descriptors: []models.ResourceDescriptor{insecureCluster()},
	}}
	pub := &fakePublisher{block: true}
	arc := &fakeArchive{}
	r := NewRunner(col, newChecker(), pub, Options{Timeout: 20 * time.Millisecond, Archive: arc, Logger: zerolog.Nop()})

	report, err := r.RunOnce(context.Background())
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrCycleSkipped)

	var rf *RunFailure
	assert.False(t, errors.As(err, &rf), "an expired deadline is not a publish failure")
	assert.Len(t, pub.reports, 1)
	assert.Empty(t, arc.saved)
}

func TestRunOnce_ParentCancelled(t *testing.T) {
	col := &fakeCollector{block: true}
	r := NewRunner(col, newChecker(), nil, Options{Timeout: time.Minute, Logger: zerolog.Nop()})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrCycleSkipped)
}

func TestRunOnce_PublishFailure(t *testing.T) {
	col := &fakeCollector{batch: &awssecurity.Batch{
		Descriptors: []models.ResourceDescriptor{insecureCluster()},
	}}
	pub := &fakePublisher{err: errors.New("throttled")}
	arc := &fakeArchive{}
	r := NewRunner(col, newChecker(), pub, Options{Archive: arc, Logger: zerolog.Nop()})

	report, err := r.RunOnce(context.Background())
	require.NotNil(t, report, "report is returned even when publishing fails")

	var rf *RunFailure
	require.ErrorAs(t, err, &rf)
	assert.Equal(t, StagePublish, rf.Stage)
	assert.Empty(t, arc.saved)
}

func TestRunOnce_ArchiveFailureIsNotFatal(t *testing.T) {
	col := &fakeCollector{batch: &awssecurity.Batch{}}
	arc := &fakeArchive{err: errors.New("disk full")}
	r := NewRunner(col, newChecker(), &fakePublisher{}, Options{Archive: arc, Logger: zerolog.Nop()})

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Verdicts)
	assert.Len(t, arc.saved, 1)
}

func TestRunOnce_NilPublisher(t *testing.T) {
	col := &fakeCollector{batch: &awssecurity.Batch{
		Descriptors: []models.ResourceDescriptor{insecureCluster()},
	}}
	r := NewRunner(col, newChecker(), nil, Options{Logger: zerolog.Nop()})

	report, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalFailures())
}
