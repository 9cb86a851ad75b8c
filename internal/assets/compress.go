package assets

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

var compressible = map[string]bool{
	".js":   true,
	".css":  true,
	".html": true,
	".json": true,
	".map":  true,
	".md":   true,
	".svg":  true,
	".txt":  true,
}

// Precompress writes a gzip sibling next to every text file in files, which
// are relative to dir, and returns the new files in the same form.
func Precompress(dir string, files []string) ([]string, error) {
	var written []string

	for _, file := range files {
		if !compressible[filepath.Ext(file)] {
			continue
		}

		src := filepath.Join(dir, filepath.FromSlash(file))
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}

		buf := new(bytes.Buffer)
		zw, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
		if err != nil {
			return nil, err
		}
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}

		if err := os.WriteFile(src+".gz", buf.Bytes(), 0o644); err != nil {
			return nil, err
		}

		written = append(written, file+".gz")
	}

	return written, nil
}
