package drive

import "testing"

func TestIsSupported(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MIMETypeGoogleDoc, true},
		{MIMETypePDF, true},
		{MIMETypeText, true},
		{MIMETypeMarkdown, true},
		{MIMETypeHTML, true},
		{MIMETypeDocx, true},
		{MIMETypeFolder, false},
		{"image/png", false},
		{"application/vnd.google-apps.spreadsheet", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsSupported(tt.mimeType); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.mimeType, got, tt.want)
		}
	}
}

func TestNeedsExport(t *testing.T) {
	if !NeedsExport(MIMETypeGoogleDoc) {
		t.Error("Google Docs must be exported")
	}
	for _, mt := range []string{MIMETypePDF, MIMETypeText, MIMETypeMarkdown} {
		if NeedsExport(mt) {
			t.Errorf("NeedsExport(%q) = true, want false", mt)
		}
	}
}

func TestEscapeQueryValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"folder123", "folder123"},
		{"it's", `it\'s`},
		{`back\slash`, `back\\slash`},
		{`mix'ed\`, `mix\'ed\\`},
	}
	for _, tt := range tests {
		if got := escapeQueryValue(tt.in); got != tt.want {
			t.Errorf("escapeQueryValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoinPath(t *testing.T) {
	tests := []struct {
		base, name, want string
	}{
		{"", "a.txt", "/a.txt"},
		{"/docs", "a.txt", "/docs/a.txt"},
		{"/docs/", "a.txt", "/docs/a.txt"},
		{"/docs/sub", "deep.txt", "/docs/sub/deep.txt"},
	}
	for _, tt := range tests {
		if got := joinPath(tt.base, tt.name); got != tt.want {
			t.Errorf("joinPath(%q, %q) = %q, want %q", tt.base, tt.name, got, tt.want)
		}
	}
}
