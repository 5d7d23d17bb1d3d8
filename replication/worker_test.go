package replication

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/svlns-gdc/journal-backend/interfaces"
	"github.com/svlns-gdc/journal-backend/store"
)

func seedLocationAndJob(t *testing.T, mem *store.InMemory, target interfaces.ProviderType, payload []byte) (*interfaces.FileLocation, *interfaces.ReplicationJob) {
	t.Helper()
	ctx := context.Background()

	loc := &interfaces.FileLocation{
		ID:                interfaces.NewFileID(),
		Filename:          "paper.pdf",
		FileType:          interfaces.FileTypePDF,
		Size:              int64(len(payload)),
		Provider:          interfaces.ProviderGitHub,
		URL:               "https://raw.example.com/files/paper.pdf",
		BackupURLs:        []string{"https://raw.example.com/files/paper.pdf"},
		Checksum:          interfaces.ComputeChecksum(payload),
		UploadDate:        time.Now().UTC(),
		LastVerified:      time.Now().UTC(),
		ReplicationStatus: interfaces.ReplicationPending,
	}
	require.NoError(t, mem.SaveFileLocation(ctx, loc, interfaces.EntityArticle, "art-1", true))

	job := &interfaces.ReplicationJob{
		ID:             "job-1",
		FileID:         loc.ID,
		Filename:       loc.ID + "_paper.pdf",
		Checksum:       loc.Checksum,
		SourceProvider: loc.Provider,
		SourceURL:      loc.URL,
		TargetProvider: target,
		NextAttempt:    time.Now().UTC().Add(-time.Second),
	}
	require.NoError(t, mem.Enqueue(ctx, job))
	return loc, job
}

func TestWorkerReplicatesJob(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()
	payload := []byte("manuscript")

	loc, job := seedLocationAndJob(t, mem, interfaces.ProviderGoogleDrive, payload)

	github := NewMockConnector(interfaces.ProviderGitHub)
	drive := NewMockConnector(interfaces.ProviderGoogleDrive)
	github.On("Fetch", mock.Anything, loc.URL).Return(payload, nil)
	drive.On("Upload", mock.Anything, job.Filename, payload).
		Return("https://drive.example.com/backup", nil)

	factory := newStubFactory(allUploadable(), github, drive)
	w := NewWorker(factory, mem, mem, DefaultWorkerConfig(), testLogger())

	processed := w.ProcessDue(ctx)
	assert.Equal(t, 1, processed)

	// Backup URL recorded and status recomputed.
	got, err := mem.GetFileLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Contains(t, got.BackupURLs, "https://drive.example.com/backup")
	assert.Equal(t, interfaces.ReplicationComplete, got.ReplicationStatus)

	jobs, err := mem.JobsForFile(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, interfaces.JobDone, jobs[0].State)
}

func TestWorkerReschedulesOnFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()
	payload := []byte("manuscript")

	loc, _ := seedLocationAndJob(t, mem, interfaces.ProviderGoogleDrive, payload)

	github := NewMockConnector(interfaces.ProviderGitHub)
	drive := NewMockConnector(interfaces.ProviderGoogleDrive)
	github.On("Fetch", mock.Anything, loc.URL).Return(payload, nil)
	drive.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("quota exceeded"))

	factory := newStubFactory(allUploadable(), github, drive)
	w := NewWorker(factory, mem, mem, WorkerConfig{MaxAttempts: 3, BaseBackoff: time.Minute}, testLogger())

	w.ProcessDue(ctx)

	jobs, err := mem.JobsForFile(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, interfaces.JobPending, jobs[0].State)
	assert.Equal(t, 1, jobs[0].Attempts)
	assert.Contains(t, jobs[0].LastError, "quota exceeded")
	assert.True(t, jobs[0].NextAttempt.After(time.Now()))

	got, err := mem.GetFileLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ReplicationPending, got.ReplicationStatus)
}

func TestWorkerMarksFailedAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()
	payload := []byte("manuscript")

	loc, _ := seedLocationAndJob(t, mem, interfaces.ProviderGoogleDrive, payload)

	github := NewMockConnector(interfaces.ProviderGitHub)
	drive := NewMockConnector(interfaces.ProviderGoogleDrive)
	github.On("Fetch", mock.Anything, loc.URL).Return(payload, nil)
	drive.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("quota exceeded"))

	factory := newStubFactory(allUploadable(), github, drive)
	w := NewWorker(factory, mem, mem, WorkerConfig{MaxAttempts: 1, BaseBackoff: time.Millisecond}, testLogger())

	w.ProcessDue(ctx)

	jobs, err := mem.JobsForFile(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, interfaces.JobFailed, jobs[0].State)

	got, err := mem.GetFileLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ReplicationFailed, got.ReplicationStatus)
}

func TestWorkerRejectsChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()

	loc, _ := seedLocationAndJob(t, mem, interfaces.ProviderGoogleDrive, []byte("manuscript"))

	github := NewMockConnector(interfaces.ProviderGitHub)
	drive := NewMockConnector(interfaces.ProviderGoogleDrive)
	// The source returns different bytes than were originally uploaded.
	github.On("Fetch", mock.Anything, loc.URL).Return([]byte("corrupted"), nil)

	factory := newStubFactory(allUploadable(), github, drive)
	w := NewWorker(factory, mem, mem, WorkerConfig{MaxAttempts: 1, BaseBackoff: time.Millisecond}, testLogger())

	w.ProcessDue(ctx)

	jobs, err := mem.JobsForFile(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, interfaces.JobFailed, jobs[0].State)
	assert.Contains(t, jobs[0].LastError, "checksum mismatch")

	drive.AssertNotCalled(t, "Upload")
}

func TestWorkerPartialStatus(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemory()
	payload := []byte("manuscript")

	loc, _ := seedLocationAndJob(t, mem, interfaces.ProviderGoogleDrive, payload)
	job2 := &interfaces.ReplicationJob{
		ID:             "job-2",
		FileID:         loc.ID,
		Filename:       loc.ID + "_paper.pdf",
		Checksum:       loc.Checksum,
		SourceProvider: loc.Provider,
		SourceURL:      loc.URL,
		TargetProvider: interfaces.ProviderDropbox,
		NextAttempt:    time.Now().UTC().Add(-time.Second),
	}
	require.NoError(t, mem.Enqueue(ctx, job2))

	github := NewMockConnector(interfaces.ProviderGitHub)
	drive := NewMockConnector(interfaces.ProviderGoogleDrive)
	dropbox := NewMockConnector(interfaces.ProviderDropbox)
	github.On("Fetch", mock.Anything, loc.URL).Return(payload, nil)
	drive.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("https://drive.example.com/backup", nil)
	dropbox.On("Upload", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("unreachable"))

	factory := newStubFactory(allUploadable(), github, drive, dropbox)
	w := NewWorker(factory, mem, mem, WorkerConfig{MaxAttempts: 1, BaseBackoff: time.Millisecond}, testLogger())

	w.ProcessDue(ctx)

	got, err := mem.GetFileLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ReplicationPartial, got.ReplicationStatus)
}

func TestStatusFromJobs(t *testing.T) {
	j := func(state interfaces.JobState) interfaces.ReplicationJob {
		return interfaces.ReplicationJob{State: state}
	}

	tests := []struct {
		name     string
		jobs     []interfaces.ReplicationJob
		expected interfaces.ReplicationStatus
	}{
		{"no jobs", nil, interfaces.ReplicationComplete},
		{"all done", []interfaces.ReplicationJob{j(interfaces.JobDone), j(interfaces.JobDone)}, interfaces.ReplicationComplete},
		{"all failed", []interfaces.ReplicationJob{j(interfaces.JobFailed)}, interfaces.ReplicationFailed},
		{"done and failed", []interfaces.ReplicationJob{j(interfaces.JobDone), j(interfaces.JobFailed)}, interfaces.ReplicationPartial},
		{"done and pending", []interfaces.ReplicationJob{j(interfaces.JobDone), j(interfaces.JobPending)}, interfaces.ReplicationPartial},
		{"all pending", []interfaces.ReplicationJob{j(interfaces.JobPending), j(interfaces.JobPending)}, interfaces.ReplicationPending},
		{"failed and pending", []interfaces.ReplicationJob{j(interfaces.JobFailed), j(interfaces.JobPending)}, interfaces.ReplicationPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFromJobs(tt.jobs))
		})
	}
}
