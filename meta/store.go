package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/lexandro/mirrormeta-mcp/language"
	"github.com/lexandro/mirrormeta-mcp/sidecar"
	"github.com/spf13/afero"
)

// Store reads and writes the metadata sidecars of mirrored files.
// It keeps no state between calls; callers serialize writes and renames per path.
type Store struct {
	fs          afero.Fs
	layout      sidecar.Layout
	logger      *slog.Logger
	activityLog func(string)
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Fs     afero.Fs
	Layout sidecar.Layout
	Logger *slog.Logger
	// ActivityLog receives human-readable diagnostics about sidecar folder creation failures.
	ActivityLog func(text string)
}

// NewStore creates a Store. A nil Fs means the OS filesystem.
func NewStore(options StoreOptions) *Store {
	store := &Store{
		fs:          options.Fs,
		layout:      options.Layout,
		logger:      options.Logger,
		activityLog: options.ActivityLog,
	}
	if store.fs == nil {
		store.fs = afero.NewOsFs()
	}
	if store.logger == nil {
		store.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return store
}

// Fs returns the filesystem the store works on.
func (s *Store) Fs() afero.Fs { return s.fs }

// Layout returns the sidecar layout the store enforces.
func (s *Store) Layout() sidecar.Layout { return s.layout }

// Source is what Write persists: a fresh listing row or an already-built record.
// Record wins when both are set.
type Source struct {
	Listing *ListingRecord
	Record  *MemberMetadata
	// CompileTimeArrayStart overwrites the stored value when set; otherwise the
	// persisted value is kept.
	CompileTimeArrayStart *int
}

// StartLine is a helper for Source.CompileTimeArrayStart.
func StartLine(line int) *int { return &line }

// Load reads the metadata of a mirrored file. It returns ErrNotFound when there is no
// sidecar and a *MalformedError when the sidecar cannot be decoded.
func (s *Store) Load(mirroredPath string) (*MemberMetadata, error) {
	metaPath := s.layout.MetadataPath(mirroredPath)
	data, err := afero.ReadFile(s.fs, metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", metaPath, err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	var record MemberMetadata
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &MalformedError{Path: metaPath, Err: err}
	}
	record.MetadataFileName = filepath.Base(metaPath)
	return &record, nil
}

// Read returns the metadata of a mirrored file, or nil when there is none.
// Malformed or unreadable sidecars are logged and reported as absent.
func (s *Store) Read(mirroredPath string) *MemberMetadata {
	record, err := s.Load(mirroredPath)
	if err == nil {
		return record
	}

	var malformed *MalformedError
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Debug("no metadata", "path", mirroredPath)
	case errors.As(err, &malformed):
		s.logger.Warn("ignoring metadata", "path", mirroredPath, "reason", "malformed", "error", malformed.Err)
	default:
		s.logger.Warn("ignoring metadata", "path", mirroredPath, "reason", "unreadable", "error", err)
	}
	return nil
}

// ReadFile is Read for a file given by directory and name.
func (s *Store) ReadFile(dirPath string, fileName string) *MemberMetadata {
	return s.Read(filepath.Join(dirPath, fileName))
}

// Write replaces the metadata of dirPath/fileName with the record built from source.
// The language code is always recomputed from the source type. Unless source carries a
// start line, the stored compile time array start is kept, or -1 for a new record.
// An empty symbol list is stored as absent.
func (s *Store) Write(dirPath string, fileName string, source Source) (*MemberMetadata, error) {
	mirroredPath := filepath.Join(dirPath, fileName)

	var record *MemberMetadata
	switch {
	case source.Record != nil:
		copied := *source.Record
		record = &copied
	case source.Listing != nil:
		record = NewFromListing(*source.Listing, dirPath, fileName)
	default:
		return nil, ErrNoSource
	}

	record.MirroredFileName = fileName
	record.DirectoryPath = dirPath
	record.LangCode = language.FromSourceType(record.SourceType)
	if len(record.DefinedSymbols) == 0 {
		record.DefinedSymbols = nil
	}

	if source.CompileTimeArrayStart != nil {
		record.CompileTimeArrayStart = *source.CompileTimeArrayStart
	} else {
		record.CompileTimeArrayStart = -1
		if previous, err := s.Load(mirroredPath); err == nil {
			record.CompileTimeArrayStart = previous.CompileTimeArrayStart
		}
	}
	if record.CompileTimeArrayStart < 0 {
		record.CompileTimeArrayStart = -1
	}

	if err := s.ensureDir(s.layout.MetadataDirPath(dirPath)); err != nil {
		return nil, err
	}

	metaPath := s.layout.MetadataPath(mirroredPath)
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding metadata for %s: %w", mirroredPath, err)
	}
	if err := afero.WriteFile(s.fs, metaPath, data, 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", metaPath, err)
	}

	record.MetadataFileName = filepath.Base(metaPath)
	return record, nil
}

// Delete removes the metadata sidecar of dirPath/fileName. A missing sidecar is not an error.
func (s *Store) Delete(dirPath string, fileName string) error {
	metaPath := s.layout.MetadataPath(filepath.Join(dirPath, fileName))
	if err := s.fs.Remove(metaPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", metaPath, err)
	}
	return nil
}

// ensureDir creates a sidecar directory, reporting failures to the activity log.
func (s *Store) ensureDir(dirPath string) error {
	if err := s.fs.MkdirAll(dirPath, 0755); err != nil {
		if s.activityLog != nil {
			s.activityLog(fmt.Sprintf("error %v creating srcf mirror meta folder %s", err, dirPath))
		}
		s.logger.Error("creating sidecar folder", "dir", dirPath, "error", err)
		return &DirectoryError{Dir: dirPath, Op: "create", Err: err}
	}
	return nil
}
