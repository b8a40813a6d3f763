package mirror

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/lexandro/mirrormeta-mcp/language"
	"github.com/lexandro/mirrormeta-mcp/meta"
	"github.com/spf13/afero"
)

// ErrNotMirrored is reported when metadata is written for a file that is not in the folder.
var ErrNotMirrored = errors.New("mirrored file not found")

// WriteRequest is the metadata a mirror run records for one member.
type WriteRequest struct {
	Listing meta.ListingRecord
	// StartLine replaces the stored compile time array start when set.
	StartLine *int
	// CaptureOriginal records the file's current text as its original content.
	CaptureOriginal bool
}

// WriteResult reports what WriteMember stored.
type WriteResult struct {
	Record          *meta.MemberMetadata
	OriginalWritten bool
}

// WriteMember records the listing of the member mirrored at mirroredPath. The file must
// exist, otherwise the next scan would delete the new sidecar again.
func (m *Manager) WriteMember(mirroredPath string, request WriteRequest) (*WriteResult, error) {
	dirPath, fileName := filepath.Dir(mirroredPath), filepath.Base(mirroredPath)
	if !language.IsMemberFileName(fileName) {
		return nil, fmt.Errorf("%s: %w", fileName, ErrInvalidName)
	}
	defer m.lockDir(dirPath)()

	fsys := m.store.Fs()
	if _, err := fsys.Stat(mirroredPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", mirroredPath, ErrNotMirrored)
		}
		return nil, fmt.Errorf("checking %s: %w", mirroredPath, err)
	}

	record, err := m.store.Write(dirPath, fileName, meta.Source{
		Listing:               &request.Listing,
		CompileTimeArrayStart: request.StartLine,
	})
	if err != nil {
		return nil, err
	}
	result := &WriteResult{Record: record}

	if request.CaptureOriginal {
		text, err := afero.ReadFile(fsys, mirroredPath)
		if err != nil {
			return result, fmt.Errorf("reading %s: %w", mirroredPath, err)
		}
		if result.OriginalWritten, err = m.store.WriteOriginal(dirPath, fileName, string(text)); err != nil {
			return result, err
		}
	}

	m.logger.Info("recorded member metadata", "path", mirroredPath, "member", record.Member,
		"original", result.OriginalWritten)
	return result, nil
}

// UpdateMember applies update to the stored metadata of mirroredPath. It returns false when
// the file has no metadata.
func (m *Manager) UpdateMember(mirroredPath string, update meta.Update) (bool, error) {
	defer m.lockDir(filepath.Dir(mirroredPath))()
	return m.store.Apply(mirroredPath, update)
}

// ForgetMember deletes the metadata sidecar of mirroredPath and, unless keepOriginal is set,
// its original content. Missing sidecars are not an error.
func (m *Manager) ForgetMember(mirroredPath string, keepOriginal bool) error {
	dirPath, fileName := filepath.Dir(mirroredPath), filepath.Base(mirroredPath)
	defer m.lockDir(dirPath)()

	if err := m.store.Delete(dirPath, fileName); err != nil {
		return err
	}
	if !keepOriginal {
		if err := m.store.DeleteOriginal(dirPath, fileName); err != nil {
			return err
		}
	}
	m.logger.Info("forgot member metadata", "path", mirroredPath, "keepOriginal", keepOriginal)
	return nil
}
