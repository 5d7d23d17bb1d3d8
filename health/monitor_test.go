package health

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConnector is a probe-only connector with a fixed result.
type fakeConnector struct {
	providerType interfaces.ProviderType
	up           bool
}

func (c *fakeConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	return "", interfaces.ErrUploadUnsupported
}

func (c *fakeConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	return nil, interfaces.ErrContentNotFound
}

func (c *fakeConnector) Probe(ctx context.Context) bool { return c.up }

func (c *fakeConnector) Type() interfaces.ProviderType { return c.providerType }

func (c *fakeConnector) Name() string { return string(c.providerType) }

func (c *fakeConnector) LocationURI() string { return "fake://" + string(c.providerType) }

type fakeFactory struct {
	connectors []interfaces.ProviderConnector
}

func (f *fakeFactory) ConnectorFor(pt interfaces.ProviderType) (interfaces.ProviderConnector, error) {
	for _, c := range f.connectors {
		if c.Type() == pt {
			return c, nil
		}
	}
	return nil, interfaces.ErrUnknownProvider
}

func (f *fakeFactory) Connectors() []interfaces.ProviderConnector { return f.connectors }

func (f *fakeFactory) UploadTargets() []interfaces.ProviderConnector { return nil }

func TestCheckStorageHealth(t *testing.T) {
	factory := &fakeFactory{connectors: []interfaces.ProviderConnector{
		&fakeConnector{interfaces.ProviderGitHub, true},
		&fakeConnector{interfaces.ProviderGoogleDrive, false},
		&fakeConnector{interfaces.ProviderDropbox, true},
		&fakeConnector{interfaces.ProviderMega, false},
	}}

	m := NewMonitor(factory, time.Second, testLogger())
	results := m.CheckStorageHealth(context.Background())

	// One entry per configured connector, failures included.
	require.Len(t, results, 4)
	assert.True(t, results[interfaces.ProviderGitHub])
	assert.False(t, results[interfaces.ProviderGoogleDrive])
	assert.True(t, results[interfaces.ProviderDropbox])
	assert.False(t, results[interfaces.ProviderMega])
}

func TestCheckStorageHealthNoConnectors(t *testing.T) {
	m := NewMonitor(&fakeFactory{}, time.Second, testLogger())
	results := m.CheckStorageHealth(context.Background())
	assert.Empty(t, results)
}

func TestSchedulerHealthSweepPersistsStatus(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()

	factory := &fakeFactory{connectors: []interfaces.ProviderConnector{
		&fakeConnector{interfaces.ProviderGitHub, true},
		&fakeConnector{interfaces.ProviderDropbox, false},
	}}
	monitor := NewMonitor(factory, time.Second, testLogger())
	scheduler := NewScheduler(monitor, mem, DefaultSchedulerConfig(), testLogger())

	scheduler.RunHealthSweep(ctx)

	usage, err := mem.GetStorageUsage(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	byProvider := map[interfaces.ProviderType]interfaces.StorageUsage{}
	for _, u := range usage {
		byProvider[u.ProviderType] = u
	}
	assert.Equal(t, interfaces.HealthHealthy, byProvider[interfaces.ProviderGitHub].HealthStatus)
	assert.Equal(t, interfaces.HealthError, byProvider[interfaces.ProviderDropbox].HealthStatus)
}

func TestSchedulerUsageRecompute(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()

	loc := &interfaces.FileLocation{
		ID:       interfaces.NewFileID(),
		Filename: "paper.pdf",
		Provider: interfaces.ProviderGitHub,
		URL:      "https://raw.example.com/paper.pdf",
		Checksum: "abc",
		Size:     2 * 1024 * 1024,
	}
	require.NoError(t, mem.SaveFileLocation(ctx, loc, interfaces.EntityArticle, "art-1", true))

	scheduler := NewScheduler(NewMonitor(&fakeFactory{}, time.Second, testLogger()), mem, DefaultSchedulerConfig(), testLogger())
	scheduler.RunUsageRecompute(ctx)

	usage, err := mem.GetStorageUsage(ctx)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, interfaces.ProviderGitHub, usage[0].ProviderType)
	assert.InDelta(t, 2.0, usage[0].UsedSpaceMB, 0.01)
}
