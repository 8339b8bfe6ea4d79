package generators

import (
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

// GeneratePWAIcons generates 192x192 and 512x512 icons from the site
// favicon. Existing icons newer than the source are kept.
func GeneratePWAIcons(srcFs afero.Fs, destFs afero.Fs, srcPath, destDir string) error {
	srcInfo, err := srcFs.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("source icon not found: %w", err)
	}

	if err := destFs.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	sizes := []int{192, 512}

	for _, size := range sizes {
		destFile := filepath.Join(destDir, fmt.Sprintf("icon-%d.png", size))

		if destInfo, err := destFs.Stat(destFile); err == nil {
			if destInfo.ModTime().After(srcInfo.ModTime()) {
				continue
			}
		}

		fmt.Printf("   🎨 Generating PWA Icon: %dx%d\n", size, size)

		in, err := srcFs.Open(srcPath)
		if err != nil {
			return err
		}
		src, err := imaging.Decode(in)
		_ = in.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", srcPath, err)
		}

		dst := imaging.Resize(src, size, size, imaging.Lanczos)

		out, err := destFs.Create(destFile)
		if err != nil {
			return err
		}
		err = imaging.Encode(out, dst, imaging.PNG)
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", destFile, err)
		}
	}

	return nil
}
