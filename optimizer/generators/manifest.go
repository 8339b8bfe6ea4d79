package generators

import (
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/spf13/afero"
)

// GenerateWebManifest creates manifest.json with a smart build check.
func GenerateWebManifest(destFs afero.Fs, destDir string, siteTitle string, siteDescription string, force bool) error {
	manifestPath := filepath.Join(destDir, "manifest.json")

	if !force {
		if exists, _ := afero.Exists(destFs, manifestPath); exists {
			return nil
		}
	}

	fmt.Println("   📱 Generating Web Manifest...")

	manifestTemplate := `{
    "name": "{{ .Title }}",
    "short_name": "{{ .Title }}",
    "start_url": "./",
    "display": "standalone",
    "background_color": "#111113",
    "theme_color": "#111113",
    "description": "{{ .Description }}",
    "icons": [
        {
            "src": "static/images/icon-192.png",
            "sizes": "192x192",
            "type": "image/png",
            "purpose": "any"
        },
        {
            "src": "static/images/icon-192.png",
            "sizes": "192x192",
            "type": "image/png",
            "purpose": "maskable"
        },
        {
            "src": "static/images/icon-512.png",
            "sizes": "512x512",
            "type": "image/png",
            "purpose": "any"
        },
        {
            "src": "static/images/icon-512.png",
            "sizes": "512x512",
            "type": "image/png",
            "purpose": "maskable"
        }
    ],
    "id": "./",
    "scope": "./"
}
`

	tmpl, err := template.New("manifest").Parse(manifestTemplate)
	if err != nil {
		return err
	}

	f, err := destFs.Create(manifestPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	data := struct {
		Title       string
		Description string
	}{
		Title:       siteTitle,
		Description: siteDescription,
	}

	return tmpl.Execute(f, data)
}
