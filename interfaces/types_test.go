package interfaces

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTypeOf(t *testing.T) {
	tests := []struct {
		filename string
		expected FileType
	}{
		{"manuscript.pdf", FileTypePDF},
		{"figure.PNG", FileTypeImage},
		{"figure.jpg", FileTypeImage},
		{"photo.jpeg", FileTypeImage},
		{"diagram.gif", FileTypeImage},
		{"banner.webp", FileTypeImage},
		{"talk.mp4", FileTypeVideo},
		{"recording.avi", FileTypeVideo},
		{"clip.mov", FileTypeVideo},
		{"stream.webm", FileTypeVideo},
		{"dataset.zip", FileTypeArchive},
		{"dataset.rar", FileTypeArchive},
		{"dataset.7z", FileTypeArchive},
		{"notes.txt", FileTypeDocument},
		{"README", FileTypeDocument},
		{"archive.tar.gz", FileTypeDocument},
		{"", FileTypeDocument},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileTypeOf(tt.filename))
		})
	}
}

func TestComputeChecksum(t *testing.T) {
	// Known SHA-256 of the empty input.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ComputeChecksum(nil))

	sumA := ComputeChecksum([]byte("abstract"))
	sumB := ComputeChecksum([]byte("abstracT"))
	assert.Len(t, sumA, 64)
	assert.NotEqual(t, sumA, sumB)
	assert.Equal(t, sumA, ComputeChecksum([]byte("abstract")))
}

func TestParseProviderType(t *testing.T) {
	pt, err := ParseProviderType("github")
	require.NoError(t, err)
	assert.Equal(t, ProviderGitHub, pt)

	pt, err = ParseProviderType("Google_Drive")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogleDrive, pt)

	_, err = ParseProviderType("ftp")
	assert.ErrorIs(t, err, ErrUnknownProvider)

	_, err = ParseProviderType("")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestFileLocationValidate(t *testing.T) {
	loc := FileLocation{
		ID:                NewFileID(),
		Filename:          "paper.pdf",
		FileType:          FileTypePDF,
		Size:              1024,
		Provider:          ProviderGitHub,
		URL:               "https://example.com/paper.pdf",
		BackupURLs:        []string{"https://example.com/paper.pdf"},
		Checksum:          ComputeChecksum([]byte("paper")),
		UploadDate:        time.Now(),
		LastVerified:      time.Now(),
		ReplicationStatus: ReplicationPending,
	}
	require.NoError(t, loc.Validate())

	missingURL := loc
	missingURL.URL = ""
	assert.Error(t, missingURL.Validate())

	missingID := loc
	missingID.ID = ""
	assert.Error(t, missingID.Validate())

	missingChecksum := loc
	missingChecksum.Checksum = ""
	assert.Error(t, missingChecksum.Validate())
}

func TestFileLocationUnderReplicated(t *testing.T) {
	loc := FileLocation{
		URL:        "https://a/x",
		BackupURLs: []string{"https://a/x"},
	}
	assert.True(t, loc.UnderReplicated())

	loc.BackupURLs = append(loc.BackupURLs, "https://b/x")
	assert.False(t, loc.UnderReplicated())

	empty := FileLocation{URL: "https://a/x"}
	assert.True(t, empty.UnderReplicated())
}

func TestNewFileID(t *testing.T) {
	a := NewFileID()
	b := NewFileID()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "file_")
}
