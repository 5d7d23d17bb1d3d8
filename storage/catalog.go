package storage

import "github.com/svlns-gdc/journal-backend/interfaces"

// ProviderSpec is the static descriptor of one storage backend. Specs are
// defined at process start and never mutated.
type ProviderSpec struct {
	// Name is the human-readable provider name.
	Name string

	// Type is the provider type tag.
	Type interfaces.ProviderType

	// BaseURL is the address retrievable file URLs are built from.
	BaseURL string

	// FreeLimit is the nominal free-tier capacity, display only.
	FreeLimit string

	// APIEndpoint is the provider API root, when distinct from BaseURL.
	APIEndpoint string
}

// DefaultCatalog returns the free-tier providers the journal replicates
// across. Order matters: backup targets are chosen in catalog order.
func DefaultCatalog() []ProviderSpec {
	return []ProviderSpec{
		{
			Name:        "GitHub",
			Type:        interfaces.ProviderGitHub,
			BaseURL:     "https://raw.githubusercontent.com/svlns-gdc/journal-content/main",
			FreeLimit:   "Unlimited public repos",
			APIEndpoint: "https://api.github.com/repos/svlns-gdc/journal-content",
		},
		{
			Name:        "Google Drive",
			Type:        interfaces.ProviderGoogleDrive,
			BaseURL:     "https://drive.google.com/uc?export=download&id=",
			FreeLimit:   "15GB",
			APIEndpoint: "https://www.googleapis.com/drive/v3",
		},
		{
			Name:        "Dropbox",
			Type:        interfaces.ProviderDropbox,
			BaseURL:     "https://dl.dropboxusercontent.com/s/",
			FreeLimit:   "2GB (expandable to 16GB)",
			APIEndpoint: "https://api.dropboxapi.com/2",
		},
		{
			Name:        "OneDrive",
			Type:        interfaces.ProviderOneDrive,
			BaseURL:     "https://onedrive.live.com/download?cid=",
			FreeLimit:   "5GB",
			APIEndpoint: "https://graph.microsoft.com/v1.0",
		},
		{
			Name:        "MEGA",
			Type:        interfaces.ProviderMega,
			BaseURL:     "https://mega.nz/file/",
			FreeLimit:   "20GB",
			APIEndpoint: "https://g.api.mega.co.nz",
		},
	}
}

// SpecFor returns the catalog entry for a provider type.
func SpecFor(catalog []ProviderSpec, pt interfaces.ProviderType) (ProviderSpec, bool) {
	for _, spec := range catalog {
		if spec.Type == pt {
			return spec, true
		}
	}
	return ProviderSpec{}, false
}
