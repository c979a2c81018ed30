package extraction

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"
)

var (
	ErrNoIFC       = errors.New("archive contains no .ifc file")
	ErrMultipleIFC = errors.New("archive contains more than one .ifc file")
)

var archiveExtensions = map[string]bool{
	".zip": true, ".ifczip": true, ".rar": true, ".7z": true, ".tar": true, ".gz": true,
}

// IsArchive reports whether filename names an archive that has to be unpacked.
func IsArchive(filename string) bool {
	return archiveExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ShouldIgnore reports whether an archive entry is a system or hidden file.
func ShouldIgnore(name string) bool {
	base := filepath.Base(name)
	switch {
	case base == "" || strings.HasSuffix(name, "/"):
		return true
	case strings.HasPrefix(base, "."):
		// Covers ._ resource forks and .DS_Store.
		return true
	case strings.EqualFold(base, "thumbs.db"):
		return true
	case strings.HasPrefix(name, "__MACOSX/"):
		return true
	}
	return false
}

// isSingleGzip reports whether filename is a gzip stream of one file rather
// than a compressed tarball.
func isSingleGzip(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".gz") && !strings.HasSuffix(lower, ".tar.gz")
}

// ExtractArchive unpacks archivePath into destDir and returns the extracted
// file paths. Entries escaping destDir and ignorable files are skipped. A
// single gzipped file such as model.ifc.gz is decompressed to model.ifc.
func ExtractArchive(ctx context.Context, archivePath, destDir string) ([]string, error) {
	if isSingleGzip(archivePath) {
		return decompressGzip(archivePath, destDir)
	}

	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}

	var files []string
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || ShouldIgnore(path) || !filepath.IsLocal(path) {
			return nil
		}
		destPath := filepath.Join(destDir, path)
		if err := copyEntry(fsys, path, destPath); err != nil {
			return err
		}
		files = append(files, destPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("extract archive: %w", err)
	}
	return files, nil
}

func decompressGzip(archivePath, destDir string) ([]string, error) {
	in, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer in.Close()

	reader, err := archives.Gz{}.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer reader.Close()

	base := filepath.Base(archivePath)
	name := base[:len(base)-len(filepath.Ext(base))]
	if name == "" || ShouldIgnore(name) {
		return nil, nil
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	destPath := filepath.Join(destDir, name)
	if err := writeFile(reader, destPath); err != nil {
		return nil, fmt.Errorf("decompress archive: %w", err)
	}
	return []string{destPath}, nil
}

func copyEntry(fsys fs.FS, path, destPath string) error {
	reader, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return writeFile(reader, destPath)
}

func writeFile(r io.Reader, destPath string) error {
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()

	_, err = io.Copy(outFile, r)
	return err
}

// FindIFC returns the single .ifc file among files.
func FindIFC(files []string) (string, error) {
	var found []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), ".ifc") {
			found = append(found, f)
		}
	}
	switch len(found) {
	case 0:
		return "", ErrNoIFC
	case 1:
		return found[0], nil
	default:
		return "", ErrMultipleIFC
	}
}
