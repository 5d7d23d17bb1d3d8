package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/svlns-gdc/journal-backend/interfaces"
)

// GitHubConnector stores journal artifacts as files in a public content
// repository via the contents API. Retrieval goes through the raw URL.
type GitHubConnector struct {
	apiBase string
	rawBase string
	branch  string
	token   string
	client  *http.Client
	log     *slog.Logger
}

type githubContentRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type githubContentResponse struct {
	Content struct {
		SHA         string `json:"sha"`
		DownloadURL string `json:"download_url"`
	} `json:"content"`
}

// NewGitHubConnector creates a connector for the content repository
// described by spec. An empty token restricts it to public reads.
func NewGitHubConnector(spec ProviderSpec, token string, client *http.Client, log *slog.Logger) *GitHubConnector {
	return &GitHubConnector{
		apiBase: strings.TrimSuffix(spec.APIEndpoint, "/"),
		rawBase: strings.TrimSuffix(spec.BaseURL, "/"),
		branch:  "main",
		token:   token,
		client:  client,
		log:     log,
	}
}

// Upload commits the payload under files/<filename> and returns the raw
// content URL. Retrying with the same payload updates the existing file
// in place.
func (c *GitHubConnector) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	path := "files/" + filename
	body := githubContentRequest{
		Message: fmt.Sprintf("Store %s", filename),
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  c.branch,
	}

	status, err := c.putContent(ctx, path, &body)
	if err != nil {
		return "", err
	}

	// 422 means the path already exists: fetch its blob SHA and update.
	if status == http.StatusUnprocessableEntity {
		sha, err := c.contentSHA(ctx, path)
		if err != nil {
			return "", fmt.Errorf("failed to resolve existing content: %w", err)
		}
		body.SHA = sha
		status, err = c.putContent(ctx, path, &body)
		if err != nil {
			return "", err
		}
	}

	if status != http.StatusCreated && status != http.StatusOK {
		return "", fmt.Errorf("GitHub contents API returned status %d for %s", status, path)
	}

	url := fmt.Sprintf("%s/%s", c.rawBase, path)
	c.log.Debug("Stored content on GitHub",
		slog.String("path", path),
		slog.Int("size", len(data)))
	return url, nil
}

func (c *GitHubConnector) putContent(ctx context.Context, path string, content *githubContentRequest) (int, error) {
	payload, err := json.Marshal(content)
	if err != nil {
		return 0, fmt.Errorf("failed to encode content request: %w", err)
	}

	url := fmt.Sprintf("%s/contents/%s", c.apiBase, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func (c *GitHubConnector) contentSHA(ctx context.Context, path string) (string, error) {
	url := fmt.Sprintf("%s/contents/%s?ref=%s", c.apiBase, path, c.branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GitHub contents API returned status %d for %s", resp.StatusCode, path)
	}

	var content struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		return "", fmt.Errorf("failed to decode content metadata: %w", err)
	}
	return content.SHA, nil
}

// Fetch retrieves a payload from its raw content URL.
func (c *GitHubConnector) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from GitHub: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, interfaces.ErrContentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub raw fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Probe checks whether the content repository is accessible.
func (c *GitHubConnector) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase, nil)
	if err != nil {
		c.log.Debug("Failed to create request", "err", err)
		return false
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("GitHub provider unavailable", "err", err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		c.log.Debug("GitHub provider unavailable",
			slog.String("status", resp.Status))
		return false
	}
	return true
}

func (c *GitHubConnector) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// Type returns the provider type tag.
func (c *GitHubConnector) Type() interfaces.ProviderType {
	return interfaces.ProviderGitHub
}

// Name returns an identifier for logging.
func (c *GitHubConnector) Name() string {
	return "github"
}

// LocationURI returns the URI identifying this connector's target.
func (c *GitHubConnector) LocationURI() string {
	return c.rawBase
}

// ArticleURLs are the canonical content repository addresses for one
// published article.
type ArticleURLs struct {
	ContentURL  string
	PDFURL      string
	MetadataURL string
}

// ArticleURLsFor builds the content repository addresses for an article
// placed in a volume and issue.
func (c *GitHubConnector) ArticleURLsFor(volume, issue int, articleID string) ArticleURLs {
	basePath := fmt.Sprintf("%s/volumes/vol-%d/issue-%d/articles/%s", c.rawBase, volume, issue, articleID)
	return ArticleURLs{
		ContentURL:  basePath + "/content.md",
		PDFURL:      basePath + "/article.pdf",
		MetadataURL: basePath + "/metadata.json",
	}
}

// IssueURLFor returns the content repository address of an issue.
func (c *GitHubConnector) IssueURLFor(volume, issue int) string {
	return fmt.Sprintf("%s/volumes/vol-%d/issue-%d", c.rawBase, volume, issue)
}

// ReviewURLFor returns the content repository address of a review.
func (c *GitHubConnector) ReviewURLFor(articleID, reviewID string) string {
	return fmt.Sprintf("%s/reviews/%s/%s/review.md", c.rawBase, articleID, reviewID)
}
