// Package drive implements the Google Drive source adapter.
package drive

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	googledrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

var folderLinkPattern = regexp.MustCompile(`/folders/([A-Za-z0-9_-]+)`)
var idParamPattern = regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`)
var bareIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ExtractFolderID accepts either a raw folder ID or a Drive folder link and
// returns the folder ID.
func ExtractFolderID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", domain.ErrInvalidFolder
	}
	if m := folderLinkPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if m := idParamPattern.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if bareIDPattern.MatchString(s) {
		return s, nil
	}
	return "", domain.ErrInvalidFolder
}

// ViewURL returns the browser view link for a Drive file.
func ViewURL(fileID string) string {
	return "https://drive.google.com/file/d/" + fileID + "/view"
}

// Client lists and downloads PDFs from Drive. It implements port.DriveSource.
type Client struct {
	svc *googledrive.Service
}

// NewClient creates a read-only Drive client using application default
// credentials.
func NewClient(ctx context.Context) (*Client, error) {
	svc, err := googledrive.NewService(ctx, option.WithScopes(googledrive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// ListPDFs returns the non-trashed PDFs directly inside the folder, up to
// pageSize files. A pageSize of zero or less lists everything.
func (c *Client) ListPDFs(ctx context.Context, folderID string, pageSize int) ([]domain.SourceFile, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType='application/pdf' and trashed=false", folderID)

	var files []domain.SourceFile
	pageToken := ""
	for {
		call := c.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, size)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		page, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("listing folder %s: %w", folderID, err)
		}
		for _, f := range page.Files {
			files = append(files, domain.SourceFile{
				SourceID:        f.Id,
				Origin:          domain.OriginDrive,
				OriginalLocator: folderID,
				DisplayName:     f.Name,
				SizeBytes:       f.Size,
			})
			if pageSize > 0 && len(files) >= pageSize {
				return files, nil
			}
		}
		if page.NextPageToken == "" {
			return files, nil
		}
		pageToken = page.NextPageToken
	}
}

// Download fetches the file content.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("downloading drive file %s: %w", fileID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading drive file %s: %w", fileID, err)
	}
	return body, nil
}

var _ port.DriveSource = (*Client)(nil)
