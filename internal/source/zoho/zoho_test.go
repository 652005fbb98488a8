package zoho

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoscan/internal/config"
	"invoscan/internal/domain"
)

func testClient() *Client {
	return NewClient(&config.SamplingConfig{
		ZohoOwner:     "owner1",
		ZohoApp:       "invoices-app",
		ZohoForm:      "Invoice_Form",
		ZohoFileField: "upload_invoice",
	})
}

func TestExtractPrivateLink(t *testing.T) {
	link, err := ExtractPrivateLink("https://creatorapp.zohopublic.in/owner1/invoices-app/report/All_Invoices/AbC123xyz")
	require.NoError(t, err)
	assert.Equal(t, "AbC123xyz", link)

	_, err = ExtractPrivateLink("https://creatorapp.zohopublic.in")
	assert.ErrorIs(t, err, domain.ErrMissingPrivateLnk)
}

func TestParseFilePath(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "download link with filepath param",
			in:   "/api/v2/owner1/invoices-app/report/All_Invoices/123/upload_invoice/download?filepath=/1688000000000_invoice.pdf",
			want: "/1688000000000_invoice.pdf",
		},
		{
			name: "filepath with trailing params",
			in:   "download?filepath=/a.pdf&expiry=10",
			want: "/a.pdf",
		},
		{
			name: "url-encoded filepath",
			in:   "download?filepath=%2Fdir%2Fa.pdf",
			want: "/dir/a.pdf",
		},
		{
			name: "bare path",
			in:   "/1688000000000_invoice.pdf",
			want: "/1688000000000_invoice.pdf",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilePath(tt.in))
		})
	}
}

func TestBuildDownloadURL(t *testing.T) {
	url := testClient().BuildDownloadURL("4567", "/inv.pdf", "privLink")
	assert.Equal(t,
		"https://creatorapp.zohopublic.in/file/owner1/invoices-app/Invoice_Form/4567/upload_invoice/download/privLink?filepath=%2Finv.pdf",
		url)
}

func TestListFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"ID":"1","upload_invoice":"download?filepath=/a.pdf"},
			{"ID":"2","upload_invoice":""},
			{"ID":"3","upload_invoice":"download?filepath=/c.pdf"},
			{"upload_invoice":"download?filepath=/no-id.pdf"}
		]}`))
	}))
	defer srv.Close()

	files, err := testClient().ListFiles(context.Background(), srv.URL+"/report/All/link9", 0)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "1", files[0].SourceID)
	assert.Equal(t, domain.OriginZoho, files[0].Origin)
	assert.Contains(t, files[0].OriginalLocator, "/file/owner1/invoices-app/Invoice_Form/1/upload_invoice/download/link9")
	assert.Contains(t, files[0].OriginalLocator, "filepath=%2Fa.pdf")
	assert.Equal(t, "3", files[1].SourceID)
}

func TestListFilesCountLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[
			{"ID":"1","upload_invoice":"download?filepath=/a.pdf"},
			{"ID":"2","upload_invoice":"download?filepath=/b.pdf"},
			{"ID":"3","upload_invoice":"download?filepath=/c.pdf"}
		]}`))
	}))
	defer srv.Close()

	files, err := testClient().ListFiles(context.Background(), srv.URL+"/report/All/link9", 2)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestListFilesNoEligible(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"ID":"1","upload_invoice":""}]}`))
	}))
	defer srv.Close()

	_, err := testClient().ListFiles(context.Background(), srv.URL+"/report/All/link9", 0)
	assert.ErrorIs(t, err, domain.ErrNoEligibleFiles)
}

func TestListFilesMissingReportURL(t *testing.T) {
	_, err := testClient().ListFiles(context.Background(), "  ", 0)
	assert.ErrorIs(t, err, domain.ErrMissingReportURL)
}
