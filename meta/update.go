package meta

import (
	"errors"
	"path/filepath"
)

// Update is a typed partial change to a stored record. The set of updates is closed:
// only the types in this file implement it.
type Update interface {
	apply(record *MemberMetadata)
}

// SetDefinedSymbols replaces the symbols a member declares, typically after a symbol scan.
type SetDefinedSymbols struct {
	Symbols []DefinedSymbol
}

func (u SetDefinedSymbols) apply(record *MemberMetadata) {
	record.DefinedSymbols = append([]DefinedSymbol(nil), u.Symbols...)
}

// SetChangeTracking records the remote change stamps of a member.
type SetChangeTracking struct {
	ModifiedTimestamp int64
	ChangeDate        string
	ChangeTime        string
}

func (u SetChangeTracking) apply(record *MemberMetadata) {
	record.ModifiedTimestamp = u.ModifiedTimestamp
	record.ChangeDate = u.ChangeDate
	record.ChangeTime = u.ChangeTime
}

// SetMirroredFileName records a new local file name after a rename.
type SetMirroredFileName struct {
	FileName string
}

func (u SetMirroredFileName) apply(record *MemberMetadata) {
	record.MirroredFileName = u.FileName
}

// Apply reads the metadata of mirroredPath, applies the update and writes it back.
// It returns false without error when the file has no (readable) metadata.
func (s *Store) Apply(mirroredPath string, update Update) (bool, error) {
	record, err := s.Load(mirroredPath)
	if err != nil {
		var malformed *MalformedError
		if errors.Is(err, ErrNotFound) || errors.As(err, &malformed) {
			s.logger.Debug("update skipped, no metadata", "path", mirroredPath, "error", err)
			return false, nil
		}
		return false, err
	}

	update.apply(record)
	dirPath, fileName := filepath.Split(mirroredPath)
	if _, err := s.Write(filepath.Clean(dirPath), fileName, Source{Record: record}); err != nil {
		return false, err
	}
	return true, nil
}
