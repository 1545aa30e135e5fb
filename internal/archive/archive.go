package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/mholt/archiver/v3"
)

// ExtractZip unpacks an uploaded package ZIP into destDir. Entry names are
// sanitized so a crafted archive cannot write outside destDir.
func ExtractZip(src, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create extraction dir: %w", err)
	}

	z := archiver.NewZip()
	err := z.Walk(src, func(f archiver.File) error {
		hdr, ok := f.Header.(zip.FileHeader)
		if !ok {
			return fmt.Errorf("unexpected archive entry header %T", f.Header)
		}
		rel, err := sanitizeEntryName(hdr.Name)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)

		if f.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
		defer out.Close()
		if _, err := io.Copy(out, f); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("unzip %s: %w", filepath.Base(src), err)
	}
	return nil
}

func sanitizeEntryName(name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("archive entry %q has absolute path", name)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction dir", name)
	}
	return cleaned, nil
}
