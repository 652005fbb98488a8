package port

import (
	"context"

	"invoscan/internal/domain"
)

// DriveSource lists and downloads PDFs from a Google Drive folder.
type DriveSource interface {
	ListPDFs(ctx context.Context, folderID string, pageSize int) ([]domain.SourceFile, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// ZohoSource lists files from a Zoho Creator report and builds their
// download URLs.
type ZohoSource interface {
	ListFiles(ctx context.Context, reportURL string, count int) ([]domain.SourceFile, error)
}

// FileFetcher downloads a file from an arbitrary HTTP(S) URL.
type FileFetcher interface {
	Fetch(ctx context.Context, url string) (body []byte, contentType string, err error)
}
