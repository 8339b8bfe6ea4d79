package generators

import (
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/spf13/afero"
)

// CacheRule maps a set of MIME types to an Expires window and Cache-Control
// header in the emitted .htaccess.
type CacheRule struct {
	Comment      string
	MimeTypes    []string
	ExpiresAfter string // Apache mod_expires syntax, e.g. "access plus 1 year"
	CacheControl string
}

// DefaultCacheRules is the shipped policy: HTML revalidates on every load,
// fingerprinted static assets are immutable for a year, images and fonts
// for a month.
func DefaultCacheRules() []CacheRule {
	return []CacheRule{
		{
			Comment:      "HTML: always revalidate",
			MimeTypes:    []string{"text/html"},
			ExpiresAfter: "access plus 0 seconds",
			CacheControl: "no-cache",
		},
		{
			Comment:      "CSS and JS: long-lived, fingerprinted",
			MimeTypes:    []string{"text/css", "application/javascript"},
			ExpiresAfter: "access plus 1 year",
			CacheControl: "public, max-age=31536000, immutable",
		},
		{
			Comment:      "Images",
			MimeTypes:    []string{"image/png", "image/jpeg", "image/webp", "image/svg+xml", "image/x-icon"},
			ExpiresAfter: "access plus 1 month",
			CacheControl: "public, max-age=2592000",
		},
		{
			Comment:      "Fonts",
			MimeTypes:    []string{"font/woff2", "font/woff", "font/ttf"},
			ExpiresAfter: "access plus 1 month",
			CacheControl: "public, max-age=2592000",
		},
	}
}

const htaccessTemplate = `# Generated by siteforge. Do not edit by hand.

<IfModule mod_expires.c>
    ExpiresActive On
{{- range .Rules }}

    # {{ .Comment }}
{{- $expires := .ExpiresAfter }}
{{- range .MimeTypes }}
    ExpiresByType {{ . }} "{{ $expires }}"
{{- end }}
{{- end }}
</IfModule>

<IfModule mod_headers.c>
{{- range .Rules }}

    # {{ .Comment }}
{{- range .MimeTypes }}
    <FilesMatch "\.({{ extPattern . }})$">
        Header set Cache-Control "{{ $.CacheControlFor . }}"
    </FilesMatch>
{{- end }}
{{- end }}
</IfModule>

<IfModule mod_deflate.c>
    AddOutputFilterByType DEFLATE text/html text/css application/javascript image/svg+xml application/json
</IfModule>
`

// GenerateHtaccess writes the .htaccess cache policy into destDir. The
// output is deterministic for a given rule set; skipped when present unless
// forced.
func GenerateHtaccess(destFs afero.Fs, destDir string, rules []CacheRule, force bool) error {
	htaccessPath := filepath.Join(destDir, ".htaccess")

	if !force {
		if exists, _ := afero.Exists(destFs, htaccessPath); exists {
			return nil
		}
	}

	if len(rules) == 0 {
		rules = DefaultCacheRules()
	}

	fmt.Println("   🗄️ Generating .htaccess cache headers...")

	data := &htaccessData{Rules: rules}
	tmpl, err := template.New("htaccess").Funcs(template.FuncMap{
		"extPattern": mimeExtPattern,
	}).Parse(htaccessTemplate)
	if err != nil {
		return err
	}

	f, err := destFs.Create(htaccessPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return tmpl.Execute(f, data)
}

type htaccessData struct {
	Rules []CacheRule
}

// CacheControlFor returns the Cache-Control value of the rule owning the
// given MIME type.
func (d *htaccessData) CacheControlFor(mimeType string) string {
	for _, r := range d.Rules {
		for _, m := range r.MimeTypes {
			if m == mimeType {
				return r.CacheControl
			}
		}
	}
	return "no-cache"
}

// mimeExtPattern maps a MIME type to the FilesMatch extension alternation.
func mimeExtPattern(mimeType string) string {
	switch mimeType {
	case "text/html":
		return "html"
	case "text/css":
		return "css"
	case "application/javascript":
		return "js"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpe?g"
	case "image/webp":
		return "webp"
	case "image/svg+xml":
		return "svg"
	case "image/x-icon":
		return "ico"
	case "font/woff2":
		return "woff2"
	case "font/woff":
		return "woff"
	case "font/ttf":
		return "ttf"
	default:
		return ""
	}
}
