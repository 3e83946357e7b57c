// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package unpack extracts the filing CSV from EDINET CSV archives.
package unpack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/edinet-facts/internal/logger"
	"github.com/pdiddy/edinet-facts/pkg/types"
)

// DefaultMemberPrefix selects the annual report body inside an archive.
const DefaultMemberPrefix = "XBRL_TO_CSV/jpcrp"

var (
	// ErrNoMember is returned when an archive has no CSV under the member prefix.
	ErrNoMember = errors.New("no matching CSV member")
	// ErrNoSecurityCode is returned for archives whose name lacks a <code>_ prefix.
	ErrNoSecurityCode = errors.New("archive name carries no security code")
)

// Status is the outcome of unpacking one archive.
type Status int

const (
	StatusExtracted Status = iota
	StatusSkipped
	StatusFailed
)

// BatchResult holds the outcome of a batch unpack run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
	Paths     []string
}

// Total returns the total number of archives processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any archive failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Unpacker extracts archives according to an UnpackConfig.
type Unpacker struct {
	cfg types.UnpackConfig
	log *logger.Logger
}

// New returns an Unpacker. An empty member prefix means DefaultMemberPrefix.
func New(cfg types.UnpackConfig, log *logger.Logger) *Unpacker {
	if cfg.MemberPrefix == "" {
		cfg.MemberPrefix = DefaultMemberPrefix
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Unpacker{cfg: cfg, log: log.With("component", "unpack")}
}

// CSVName returns the output name for an archive: the archive stem, which
// starts with the security code, plus .csv.
func CSVName(archivePath string) string {
	base := filepath.Base(archivePath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".csv"
}

// Archive extracts the matching member of zipPath into the CSV directory
// and deletes the archive unless KeepArchives is set. An existing output
// is left alone and reported as skipped.
func (u *Unpacker) Archive(zipPath string, w io.Writer) (string, Status, error) {
	name := filepath.Base(zipPath)
	if types.SecurityCodeFromName(name) == "" {
		return "", StatusFailed, fmt.Errorf("%s: %w", name, ErrNoSecurityCode)
	}
	outPath := filepath.Join(u.cfg.CSVDir, CSVName(zipPath))
	if _, err := os.Stat(outPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
		return outPath, StatusSkipped, nil
	}

	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", StatusFailed, fmt.Errorf("opening %s: %w", name, err)
	}
	member := findMember(zr.File, u.cfg.MemberPrefix)
	if member == nil {
		zr.Close()
		return "", StatusFailed, fmt.Errorf("%s: %w with prefix %q", name, ErrNoMember, u.cfg.MemberPrefix)
	}

	if err := os.MkdirAll(u.cfg.CSVDir, 0o755); err != nil {
		zr.Close()
		return "", StatusFailed, fmt.Errorf("creating directory %s: %w", u.cfg.CSVDir, err)
	}
	err = extractMember(member, outPath)
	zr.Close()
	if err != nil {
		return "", StatusFailed, fmt.Errorf("%s: %w", name, err)
	}

	if !u.cfg.KeepArchives {
		if err := os.Remove(zipPath); err != nil {
			u.log.Warn("could not delete archive", "path", zipPath, "error", err)
		}
	}
	u.log.Debug("unpacked archive", "archive", name, "member", member.Name, "output", outPath)
	fmt.Fprintf(w, "extracted: %s -> %s\n", name, filepath.Base(outPath))
	return outPath, StatusExtracted, nil
}

// Dir unpacks every .zip in the archive directory in name order. Failures
// are reported per archive and do not stop the batch.
func (u *Unpacker) Dir(w io.Writer) (BatchResult, error) {
	matches, err := filepath.Glob(filepath.Join(u.cfg.ZipDir, "*.zip"))
	if err != nil {
		return BatchResult{}, fmt.Errorf("listing archives: %w", err)
	}
	sort.Strings(matches)
	return u.Paths(matches, w), nil
}

// Paths unpacks the given archives.
func (u *Unpacker) Paths(zipPaths []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range zipPaths {
		out, status, err := u.Archive(p, w)
		switch status {
		case StatusExtracted:
			result.Extracted++
			result.Paths = append(result.Paths, out)
		case StatusSkipped:
			result.Skipped++
		default:
			fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(p), err)
			u.log.Error("unpack failed", "archive", p, "error", err)
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		result.Extracted, result.Skipped, result.Failed, result.Total())
	return result
}

// findMember returns the first CSV whose path starts with prefix. Archive
// paths may use either separator.
func findMember(files []*zip.File, prefix string) *zip.File {
	for _, f := range files {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(name, prefix) && strings.EqualFold(filepath.Ext(name), ".csv") {
			return f
		}
	}
	return nil
}

func extractMember(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening member %s: %w", f.Name, err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".unpack-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, rc)
	closeErr := tmp.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing member: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
