package meta

import (
	"strings"

	"github.com/lexandro/mirrormeta-mcp/language"
)

// SymbolKind is the kind of a symbol declared in a structured-source member.
type SymbolKind string

const (
	KindProcedure  SymbolKind = "procedure"
	KindPrototype  SymbolKind = "prototype"
	KindSubroutine SymbolKind = "subroutine"
	KindDataStruct SymbolKind = "datastruct"
	KindFile       SymbolKind = "file"
	KindConstant   SymbolKind = "constant"
	KindField      SymbolKind = "field"
	KindVariable   SymbolKind = "variable"
)

// SymbolKinds lists every known kind, in display order.
var SymbolKinds = []SymbolKind{
	KindProcedure, KindPrototype, KindSubroutine, KindDataStruct,
	KindFile, KindConstant, KindField, KindVariable,
}

// ParseSymbolKind returns the kind with the given name (case-insensitive).
func ParseSymbolKind(name string) (SymbolKind, bool) {
	for _, kind := range SymbolKinds {
		if strings.EqualFold(string(kind), name) {
			return kind, true
		}
	}
	return "", false
}

// DefinedSymbol is one symbol declared by a member.
type DefinedSymbol struct {
	SymbolName string     `json:"symbolName"`
	SymbolType SymbolKind `json:"symbolType"`
	LineNum    int        `json:"lineNum,omitempty"` // 1-based, 0 when unknown
}

// ListingRecord is one row of the remote member listing a mirror run works from.
// JSON names follow the listing columns.
type ListingRecord struct {
	MemberName string `json:"MBRNAME"`
	FileName   string `json:"FILENAME"`
	Library    string `json:"LIBNAME"`
	SourceType string `json:"SRCTYPE"`
	Text       string `json:"MBRTEXT,omitempty"`
	ChangeDate string `json:"CHGDATE,omitempty"`
	ChangeTime string `json:"CHGTIME,omitempty"`
	ModTime    int64  `json:"mtime,omitempty"`
}

// MemberMetadata is the sidecar record kept for one mirrored file.
// JSON names match the sidecars already written by earlier mirror tooling.
type MemberMetadata struct {
	Member            string            `json:"srcmbr"`
	SourceFileName    string            `json:"srcfName"`
	SourceLibrary     string            `json:"srcfLib"`
	SourceType        string            `json:"srcType"`
	TextDescription   string            `json:"textDesc"`
	MirroredFileName  string            `json:"srcmbr_fileName"`
	DirectoryPath     string            `json:"dirPath"`
	ChangeDate        string            `json:"chgDate"`
	ChangeTime        string            `json:"chgTime"`
	ModifiedTimestamp int64             `json:"mtime"`
	LangCode          language.LangCode `json:"langCode"`

	// CompileTimeArrayStart is the line where compile time array data begins, or -1.
	// Formatters use it to decide whether source lines may be shifted left.
	CompileTimeArrayStart int `json:"compile_time_array_start"`

	DefinedSymbols []DefinedSymbol `json:"definedSymbols,omitempty"`

	// MetadataFileName is recomputed from the sidecar layout on every read and write.
	MetadataFileName string `json:"-"`
}

// NewFromListing builds a fresh record for a member mirrored into dirPath/fileName.
func NewFromListing(listing ListingRecord, dirPath string, fileName string) *MemberMetadata {
	return &MemberMetadata{
		Member:                listing.MemberName,
		SourceFileName:        listing.FileName,
		SourceLibrary:         listing.Library,
		SourceType:            listing.SourceType,
		TextDescription:       listing.Text,
		MirroredFileName:      fileName,
		DirectoryPath:         dirPath,
		ChangeDate:            listing.ChangeDate,
		ChangeTime:            listing.ChangeTime,
		ModifiedTimestamp:     listing.ModTime,
		LangCode:              language.FromSourceType(listing.SourceType),
		CompileTimeArrayStart: -1,
	}
}

// OriginalContent is the as-mirrored text of a member, written once at mirror time.
type OriginalContent struct {
	MirroredFileName  string `json:"srcmbr_fileName"`
	OriginalLinesText string `json:"original_lines_text"`
	ContentHash       string `json:"contentHash,omitempty"`
}
