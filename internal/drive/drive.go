// Package drive is the content-source adapter for Google Drive.
//
// It lists folder trees (paginated, recursing into subfolders), downloads
// raw file content, and exports Google-native documents to plain text.
// Authentication failures from the Drive API surface as ErrUnauthorized so
// callers can route to re-authorization instead of treating them as generic
// failures.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// ErrUnauthorized indicates the Drive credential is expired or invalid.
var ErrUnauthorized = errors.New("drive: unauthorized")

// MaxContentSize caps downloaded and exported content (10MB). Larger files
// are truncated at read time rather than rejected.
const MaxContentSize = 10 * 1024 * 1024

// listPageSize is the page size for folder listings.
const listPageSize = 100

// requestsPerSecond rate-limits Drive API calls to stay under the default
// per-user quota.
const requestsPerSecond = 8

// FileDescriptor describes one file found during a folder walk. Path is the
// slash-joined folder path from the walk root, including the file name.
type FileDescriptor struct {
	ID           string
	Name         string
	Path         string
	MIMEType     string
	Size         int64
	ModifiedTime string
}

// Client wraps the Drive v3 API for listing and content retrieval.
type Client struct {
	svc     *drivev3.Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates a Drive client authenticated by ts. A nil logger falls
// back to slog.Default().
func NewClient(ctx context.Context, ts oauth2.TokenSource, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	svc, err := drivev3.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}

	return &Client{
		svc:     svc,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}, nil
}

// ListFolder walks the folder tree rooted at folderID and returns descriptors
// for every non-folder file found. basePath is prepended to each descriptor's
// Path. Each folder's listing is fully paginated before its subfolders are
// descended into; subfolders are skipped entirely when recursive is false.
func (c *Client) ListFolder(ctx context.Context, folderID, basePath string, recursive bool) ([]FileDescriptor, error) {
	var (
		files      []FileDescriptor
		subfolders []*drivev3.File
		pageToken  string
	)

	query := fmt.Sprintf("'%s' in parents and trashed = false", escapeQueryValue(folderID))

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		call := c.svc.Files.List().
			Q(query).
			PageSize(listPageSize).
			Fields("nextPageToken, files(id, name, mimeType, size, modifiedTime)").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			return nil, mapAPIError(fmt.Errorf("listing folder %s: %w", folderID, err))
		}

		for _, f := range page.Files {
			if f.MimeType == MIMETypeFolder {
				subfolders = append(subfolders, f)
				continue
			}
			files = append(files, FileDescriptor{
				ID:           f.Id,
				Name:         f.Name,
				Path:         joinPath(basePath, f.Name),
				MIMEType:     f.MimeType,
				Size:         f.Size,
				ModifiedTime: f.ModifiedTime,
			})
		}

		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("listed folder",
		"folder_id", folderID, "files", len(files), "subfolders", len(subfolders))

	if !recursive {
		return files, nil
	}

	for _, sub := range subfolders {
		nested, err := c.ListFolder(ctx, sub.Id, joinPath(basePath, sub.Name), true)
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}

	return files, nil
}

// Download fetches the raw bytes of a regular (non-native) file.
func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, mapAPIError(fmt.Errorf("downloading file %s: %w", fileID, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", fileID, err)
	}
	return data, nil
}

// Export converts a Google-native document (Docs and friends) to plain text.
func (c *Client) Export(ctx context.Context, fileID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	resp, err := c.svc.Files.Export(fileID, "text/plain").Context(ctx).Download()
	if err != nil {
		return "", mapAPIError(fmt.Errorf("exporting file %s: %w", fileID, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxContentSize))
	if err != nil {
		return "", fmt.Errorf("reading export %s: %w", fileID, err)
	}
	return string(data), nil
}

// mapAPIError converts Drive API authorization failures into ErrUnauthorized
// while preserving the original error text.
func mapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403 && hasAuthReason(apiErr)) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	// oauth2 surfaces refresh failures as RetrieveError before any API call.
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}

// hasAuthReason reports whether a 403 stems from credential problems rather
// than quota or permission rules.
func hasAuthReason(apiErr *googleapi.Error) bool {
	for _, e := range apiErr.Errors {
		if e.Reason == "authError" || e.Reason == "expired" {
			return true
		}
	}
	return false
}

// escapeQueryValue escapes a value for interpolation into a Drive query
// string, which uses single-quoted literals.
func escapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// joinPath concatenates folder path segments with "/".
func joinPath(base, name string) string {
	if base == "" {
		return "/" + name
	}
	return strings.TrimSuffix(base, "/") + "/" + name
}
