package drive

// Google Workspace and common document MIME types.
const (
	MIMETypeGoogleDoc = "application/vnd.google-apps.document"
	MIMETypeFolder    = "application/vnd.google-apps.folder"
	MIMETypePDF       = "application/pdf"
	MIMETypeText      = "text/plain"
	MIMETypeMarkdown  = "text/markdown"
	MIMETypeHTML      = "text/html"
	MIMETypeDocx      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// supportedMIMETypes are the types the ingestion pipeline can extract text
// from. Everything else (images, spreadsheets, unknown binaries) is skipped
// cleanly, no error record.
var supportedMIMETypes = map[string]bool{
	MIMETypeGoogleDoc: true,
	MIMETypePDF:       true,
	MIMETypeText:      true,
	MIMETypeMarkdown:  true,
	MIMETypeHTML:      true,
	MIMETypeDocx:      true,
}

// IsSupported reports whether the pipeline can extract text from mimeType.
func IsSupported(mimeType string) bool {
	return supportedMIMETypes[mimeType]
}

// NeedsExport reports whether mimeType is a Google-native format that must be
// exported to plain text rather than downloaded raw.
func NeedsExport(mimeType string) bool {
	return mimeType == MIMETypeGoogleDoc
}
