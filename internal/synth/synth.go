// Package synth writes generated files without destroying manual edits.
// Source files carry a fingerprint of their body on the first line; a file
// whose body no longer matches its fingerprint has been edited by hand and is
// never overwritten unless forced.
package synth

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"orivus/internal/config"
	oerrors "orivus/internal/errors"
	"orivus/internal/slogutil"
)

// Status is the outcome of one write.
type Status string

const (
	StatusCreated  Status = "created"
	StatusUpdated  Status = "updated"
	StatusSkipped  Status = "skipped"
	StatusConflict Status = "conflict"
)

// Result describes what Write did to one path.
type Result struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
	// ConflictPath holds the new content when Status is conflict.
	ConflictPath string `json:"conflictPath,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`
}

// Options tune a single write.
type Options struct {
	// Force overwrites edited and unrecognized files.
	Force bool
}

// Synthesizer decides and performs writes for generated files. It holds no
// per-file state; concurrent writes to distinct paths are safe.
type Synthesizer struct {
	conflictSuffix string
	extensions     map[string]bool
	logger         *slog.Logger
}

// New builds a synthesizer from the synth section of the config.
func New(cfg config.SynthConfig, logger *slog.Logger) *Synthesizer {
	s := &Synthesizer{
		conflictSuffix: cfg.ConflictSuffix,
		extensions:     make(map[string]bool, len(cfg.FingerprintExtensions)),
		logger:         slogutil.OrDiscard(logger).With(slogutil.ComponentKey, "synth"),
	}
	if s.conflictSuffix == "" {
		s.conflictSuffix = config.DefaultConfig().Synth.ConflictSuffix
	}
	for _, ext := range cfg.FingerprintExtensions {
		s.extensions[strings.ToLower(ext)] = true
	}
	return s
}

// Fingerprinted reports whether files at path get a fingerprint header.
func (s *Synthesizer) Fingerprinted(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// ConflictPath is the sibling path that receives new content on conflict.
func (s *Synthesizer) ConflictPath(path string) string {
	return path + s.conflictSuffix
}

// Render returns the exact bytes Write would put at path for body.
func (s *Synthesizer) Render(path, body string) string {
	if s.Fingerprinted(path) {
		return Stamp(body)
	}
	return body
}

// Write places body at path:
//   - no file: write it, created
//   - fingerprinted and unedited: skipped when the body is unchanged, else updated
//   - edited, or present without a fingerprint: skipped when byte-identical,
//     else the new content goes to the conflict path and the file is untouched
//
// Force always writes and reports updated for an existing file.
func (s *Synthesizer) Write(path, body string, opts Options) (Result, error) {
	out := s.Render(path, body)
	res := Result{Path: path}
	if s.Fingerprinted(path) {
		res.Fingerprint = Fingerprint(body)
	}

	existing, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		res.Status = StatusCreated
		return s.commit(res, path, out)
	case err != nil:
		return res, oerrors.NewOrivusError(oerrors.WriteFailed, fmt.Sprintf("cannot read %s", path), err, nil)
	}
	current := string(existing)

	if opts.Force {
		res.Status = StatusUpdated
		return s.commit(res, path, out)
	}

	if s.Fingerprinted(path) && Unmodified(current) {
		fp, _, _ := SplitHeader(current)
		if fp == res.Fingerprint {
			res.Status = StatusSkipped
			return res, nil
		}
		res.Status = StatusUpdated
		return s.commit(res, path, out)
	}

	if current == out || current == body {
		res.Status = StatusSkipped
		return res, nil
	}

	res.Status = StatusConflict
	res.ConflictPath = s.ConflictPath(path)
	s.logger.Warn("file edited since generation, new content written aside",
		"path", path, "conflict", res.ConflictPath)
	return s.commit(res, res.ConflictPath, out)
}

func (s *Synthesizer) commit(res Result, path, content string) (Result, error) {
	if err := WriteAtomic(path, content); err != nil {
		return res, oerrors.NewOrivusError(oerrors.WriteFailed, fmt.Sprintf("cannot write %s", path), err, nil)
	}
	s.logger.Debug("wrote file", "path", path, "status", string(res.Status))
	return res, nil
}

// WriteAtomic writes content to a temp file beside path and renames it into
// place, so readers never see a half-written file.
func WriteAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// Summary counts results by status.
type Summary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Conflicts int `json:"conflicts"`
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusCreated:
			s.Created++
		case StatusUpdated:
			s.Updated++
		case StatusSkipped:
			s.Skipped++
		case StatusConflict:
			s.Conflicts++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("%d created, %d updated, %d skipped, %d conflicts", s.Created, s.Updated, s.Skipped, s.Conflicts)
}
