package generators

import (
	"encoding/json"
	"image"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"siteforge/optimizer/sw"
)

func TestGenerateSW(t *testing.T) {
	fsys := afero.NewMemMapFs()
	manifest := sw.Manifest{"/", "/index.html", "/404.html", "/manifest.json"}

	if err := GenerateSW(fsys, "public", "site-v42", "https://example.com", manifest, true); err != nil {
		t.Fatalf("GenerateSW() failed: %v", err)
	}

	out, err := afero.ReadFile(fsys, "public/sw.js")
	if err != nil {
		t.Fatalf("Failed to read sw.js: %v", err)
	}
	js := string(out)

	if !strings.Contains(js, "const CACHE_NAME = 'site-v42';") {
		t.Error("sw.js should embed the generation tag")
	}
	for _, u := range manifest {
		if !strings.Contains(js, "'https://example.com"+u+"'") {
			t.Errorf("sw.js missing manifest entry %s", u)
		}
	}
	if !strings.Contains(js, "cache.addAll(CORE_ASSETS)") {
		t.Error("sw.js should install the whole manifest at once")
	}
	if strings.Contains(js, "skipWaiting") {
		t.Error("sw.js must not force-activate over live pages")
	}
	if strings.Contains(js, "cache.put") {
		t.Error("sw.js must not populate the cache at runtime")
	}
	if !strings.Contains(js, "cached || fetch(request)") {
		t.Error("sw.js fetch handler should be cache-first with network fallback")
	}
}

func TestGenerateSW_SmartSkip(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "public/sw.js", []byte("// existing"), 0644); err != nil {
		t.Fatalf("Failed to seed sw.js: %v", err)
	}

	manifest := sw.Manifest{"/"}
	if err := GenerateSW(fsys, "public", "v2", "", manifest, false); err != nil {
		t.Fatalf("GenerateSW() failed: %v", err)
	}
	out, _ := afero.ReadFile(fsys, "public/sw.js")
	if string(out) != "// existing" {
		t.Error("Existing sw.js should be kept without force")
	}

	if err := GenerateSW(fsys, "public", "v2", "", manifest, true); err != nil {
		t.Fatalf("GenerateSW(force) failed: %v", err)
	}
	out, _ = afero.ReadFile(fsys, "public/sw.js")
	if string(out) == "// existing" {
		t.Error("Force should regenerate sw.js")
	}
}

func TestGenerateSW_RejectsInvalidManifest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := GenerateSW(fsys, "public", "v1", "", sw.Manifest{}, true); err == nil {
		t.Error("Empty manifest should be rejected")
	}
}

func TestGenerateWebManifest(t *testing.T) {
	fsys := afero.NewMemMapFs()

	if err := GenerateWebManifest(fsys, "public", "My Site", "A test site", true); err != nil {
		t.Fatalf("GenerateWebManifest() failed: %v", err)
	}

	out, err := afero.ReadFile(fsys, "public/manifest.json")
	if err != nil {
		t.Fatalf("Failed to read manifest.json: %v", err)
	}

	var parsed struct {
		Name    string `json:"name"`
		Display string `json:"display"`
		Icons   []struct {
			Src   string `json:"src"`
			Sizes string `json:"sizes"`
		} `json:"icons"`
	}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("manifest.json is not valid JSON: %v", err)
	}
	if parsed.Name != "My Site" {
		t.Errorf("name = %q, want My Site", parsed.Name)
	}
	if parsed.Display != "standalone" {
		t.Errorf("display = %q, want standalone", parsed.Display)
	}
	if len(parsed.Icons) != 4 {
		t.Errorf("icons = %d entries, want 4", len(parsed.Icons))
	}
}

func TestGenerateHtaccess(t *testing.T) {
	fsys := afero.NewMemMapFs()

	if err := GenerateHtaccess(fsys, "public", nil, true); err != nil {
		t.Fatalf("GenerateHtaccess() failed: %v", err)
	}

	out, err := afero.ReadFile(fsys, "public/.htaccess")
	if err != nil {
		t.Fatalf("Failed to read .htaccess: %v", err)
	}
	conf := string(out)

	for _, want := range []string{
		`ExpiresByType text/html "access plus 0 seconds"`,
		`ExpiresByType text/css "access plus 1 year"`,
		`ExpiresByType image/webp "access plus 1 month"`,
		`Header set Cache-Control "no-cache"`,
		`Header set Cache-Control "public, max-age=31536000, immutable"`,
		"AddOutputFilterByType DEFLATE",
	} {
		if !strings.Contains(conf, want) {
			t.Errorf(".htaccess missing %q", want)
		}
	}
}

func TestGenerateHtaccess_Deterministic(t *testing.T) {
	a := afero.NewMemMapFs()
	b := afero.NewMemMapFs()

	if err := GenerateHtaccess(a, "public", nil, true); err != nil {
		t.Fatalf("GenerateHtaccess() failed: %v", err)
	}
	if err := GenerateHtaccess(b, "public", nil, true); err != nil {
		t.Fatalf("GenerateHtaccess() failed: %v", err)
	}

	outA, _ := afero.ReadFile(a, "public/.htaccess")
	outB, _ := afero.ReadFile(b, "public/.htaccess")
	if string(outA) != string(outB) {
		t.Error(".htaccess output should be deterministic")
	}
}

func TestGeneratePWAIcons(t *testing.T) {
	srcFs := afero.NewMemMapFs()
	destFs := afero.NewMemMapFs()

	f, err := srcFs.Create("static/images/favicon.png")
	if err != nil {
		t.Fatalf("Failed to create favicon: %v", err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 64))); err != nil {
		t.Fatalf("Failed to encode favicon: %v", err)
	}
	_ = f.Close()

	if err := GeneratePWAIcons(srcFs, destFs, "static/images/favicon.png", "public/static/images"); err != nil {
		t.Fatalf("GeneratePWAIcons() failed: %v", err)
	}

	for _, name := range []string{"icon-192.png", "icon-512.png"} {
		exists, _ := afero.Exists(destFs, "public/static/images/"+name)
		if !exists {
			t.Errorf("Expected %s to be generated", name)
		}
	}
}

func TestGeneratePWAIcons_MissingSource(t *testing.T) {
	srcFs := afero.NewMemMapFs()
	destFs := afero.NewMemMapFs()

	if err := GeneratePWAIcons(srcFs, destFs, "static/images/favicon.png", "public/static/images"); err == nil {
		t.Error("Missing source icon should be an error")
	}
}
