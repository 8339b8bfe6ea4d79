// handles command-line flags
package config

import (
	"flag"
	"strings"
	"time"
)

type Config struct {
	SiteDir        string
	BaseURL        string
	CacheDir       string
	VerifyOrigin   string
	CompressImages bool
	ForceRebuild   bool
	IsDev          bool
	BuildVersion   int64
}

func Load(args []string) *Config {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	dirFlag := fs.String("dir", "public", "Built site directory to optimize")
	baseURLFlag := fs.String("baseurl", "", "Base URL")
	cacheDirFlag := fs.String("cachedir", ".siteforge-cache", "Cache directory")
	verifyOriginFlag := fs.String("verify-origin", "", "Origin URL to verify the offline manifest against after optimizing")
	compressFlag := fs.Bool("compress", false, "Enable image compression")
	forceFlag := fs.Bool("force", false, "Force regeneration of artifacts")
	devFlag := fs.Bool("dev", false, "Development mode (skips PWA artifacts)")
	_ = fs.Parse(args)

	return &Config{
		SiteDir:        *dirFlag,
		BaseURL:        strings.TrimSuffix(*baseURLFlag, "/"),
		CacheDir:       *cacheDirFlag,
		VerifyOrigin:   strings.TrimSuffix(*verifyOriginFlag, "/"),
		CompressImages: *compressFlag,
		ForceRebuild:   *forceFlag,
		IsDev:          *devFlag,
		BuildVersion:   time.Now().Unix(),
	}
}
