package artifact

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/marciomazza/dotfiles"
)

type archiveFormat int

const (
	formatTarGz archiveFormat = iota + 1
	formatZip
)

// formatOf detects the archive type from the file name suffixes.
func formatOf(name string) (archiveFormat, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return formatTarGz, nil
	case strings.HasSuffix(lower, ".zip"):
		return formatZip, nil
	default:
		return 0, fmt.Errorf("%w: %s", dotfiles.ErrUnrecognizedFormat, filepath.Base(name))
	}
}

// extract unpacks the archive at compressed into destination.
func extract(compressed, destination string) error {
	format, err := formatOf(compressed)
	if err != nil {
		return err
	}

	file, err := os.Open(compressed)
	if err != nil {
		return fmt.Errorf("failed to open compressed file: %w", err)
	}
	defer file.Close()

	switch format {
	case formatZip:
		info, err := file.Stat()
		if err != nil {
			return err
		}
		return unzip(file, info.Size(), destination)
	default:
		return untar(file, destination)
	}
}

// handles .tar.gz files
func untar(file io.Reader, destination string) error {
	decompressor, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer decompressor.Close()

	reader := tar.NewReader(decompressor)

	for {
		header, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		target, err := within(destination, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, reader, header.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		}
	}

	return nil
}

// handles .zip files
func unzip(file io.ReaderAt, size int64, destination string) error {
	reader, err := zip.NewReader(file, size)
	if err != nil {
		return fmt.Errorf("failed to create zip reader: %w", err)
	}

	for _, entry := range reader.File {
		target, err := within(destination, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			continue
		}
		if !entry.Mode().IsRegular() {
			continue
		}

		contents, err := entry.Open()
		if err != nil {
			return fmt.Errorf("failed to open file %s: %w", entry.Name, err)
		}
		err = writeFile(target, contents, entry.Mode().Perm())
		contents.Close()
		if err != nil {
			return err
		}
	}

	return nil
}

// within joins name to destination, refusing entries that would escape it.
func within(destination, name string) (string, error) {
	target := filepath.Join(destination, name)
	if target != filepath.Clean(destination) &&
		!strings.HasPrefix(target, filepath.Clean(destination)+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry %q escapes the extraction directory", name)
	}
	return target, nil
}

func writeFile(target string, data io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(target), err)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", target, err)
	}

	if _, err := io.Copy(out, data); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy data to file %s: %w", target, err)
	}
	return out.Close()
}
