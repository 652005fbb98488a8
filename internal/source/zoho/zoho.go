// Package zoho implements the Zoho Creator published-report source adapter.
package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"invoscan/internal/config"
	"invoscan/internal/domain"
	"invoscan/internal/port"
)

const publicHost = "https://creatorapp.zohopublic.in"

// Client lists attachment files from a published Zoho Creator report. It
// implements port.ZohoSource.
type Client struct {
	http        *http.Client
	owner       string
	app         string
	form        string
	fileField   string
	privateLink string
}

// NewClient creates a Client from sampling configuration.
func NewClient(cfg *config.SamplingConfig) *Client {
	return &Client{
		http:        &http.Client{Timeout: 60 * time.Second},
		owner:       cfg.ZohoOwner,
		app:         cfg.ZohoApp,
		form:        cfg.ZohoForm,
		fileField:   cfg.ZohoFileField,
		privateLink: cfg.ZohoPrivateLink,
	}
}

// ExtractPrivateLink pulls the private link token from a published report URL.
// The token is the last path segment.
func ExtractPrivateLink(reportURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(reportURL))
	if err != nil || u.Path == "" {
		return "", domain.ErrMissingPrivateLnk
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return "", domain.ErrMissingPrivateLnk
	}
	return last, nil
}

// ParseFilePath extracts the stored file path from an attachment field value.
// Values look like "/api/v2/.../download?filepath=/168xx/file.pdf"; bare paths
// are returned as-is.
func ParseFilePath(fieldValue string) string {
	fieldValue = strings.TrimSpace(fieldValue)
	if fieldValue == "" {
		return ""
	}
	if idx := strings.Index(fieldValue, "filepath="); idx >= 0 {
		fp := fieldValue[idx+len("filepath="):]
		if amp := strings.IndexByte(fp, '&'); amp >= 0 {
			fp = fp[:amp]
		}
		if decoded, err := url.QueryUnescape(fp); err == nil {
			return decoded
		}
		return fp
	}
	return fieldValue
}

// BuildDownloadURL assembles the public download URL for one record's
// attachment.
func (c *Client) BuildDownloadURL(recordID, filePath, privateLink string) string {
	return fmt.Sprintf("%s/file/%s/%s/%s/%s/%s/download/%s?filepath=%s",
		publicHost, c.owner, c.app, c.form, recordID, c.fileField, privateLink,
		url.QueryEscape(filePath))
}

// ListFiles fetches the published report and returns one SourceFile per record
// that carries an attachment, up to count records. Returns
// domain.ErrNoEligibleFiles when no record has an attachment.
func (c *Client) ListFiles(ctx context.Context, reportURL string, count int) ([]domain.SourceFile, error) {
	if strings.TrimSpace(reportURL) == "" {
		return nil, domain.ErrMissingReportURL
	}
	privateLink := c.privateLink
	if privateLink == "" {
		link, err := ExtractPrivateLink(reportURL)
		if err != nil {
			return nil, err
		}
		privateLink = link
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating report request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching report: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report fetch failed with %d", resp.StatusCode)
	}

	var report struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}

	var files []domain.SourceFile
	for _, row := range report.Data {
		recordID, _ := row["ID"].(string)
		if recordID == "" {
			continue
		}
		raw, _ := row[c.fileField].(string)
		filePath := ParseFilePath(raw)
		if filePath == "" {
			continue
		}
		files = append(files, domain.SourceFile{
			SourceID:        recordID,
			Origin:          domain.OriginZoho,
			OriginalLocator: c.BuildDownloadURL(recordID, filePath, privateLink),
			DisplayName:     filePath,
		})
		if count > 0 && len(files) >= count {
			break
		}
	}
	if len(files) == 0 {
		return nil, domain.ErrNoEligibleFiles
	}
	return files, nil
}

var _ port.ZohoSource = (*Client)(nil)
