package language

import (
	"path/filepath"
	"strings"
)

// LangCode is the language classification of a mirrored source member.
type LangCode string

const (
	RPG   LangCode = "rpg"   // structured source (RPGLE, SQLRPGLE)
	DDS   LangCode = "dds"   // display / file formats
	SQL   LangCode = "sql"   // embedded or standalone SQL source
	Other LangCode = "other" // anything unrecognized
)

// SourceTypeToLanguage maps remote source type codes (upper case) to a classification.
// SQL-prefixed codes that are not listed here are classified by FromSourceType.
var SourceTypeToLanguage = map[string]LangCode{
	"RPGLE":    RPG,
	"SQLRPGLE": RPG,
	"DSPF":     DDS,
	"PF":       DDS,
	"LF":       DDS,
	"PRTF":     DDS,
}

// ExtensionToLanguage maps local file extensions (lower case, without dot) to a classification.
var ExtensionToLanguage = map[string]LangCode{
	"rpgle":    RPG,
	"sqlrpgle": RPG,
	"dspf":     DDS,
	"pf":       DDS,
	"lf":       DDS,
	"prtf":     DDS,
	"sql":      SQL,
	"sqli":     SQL,
}

// FromSourceType returns the classification for a remote source type code.
// Unknown codes are never an error: they classify as SQL when they carry the
// SQL prefix and Other otherwise.
func FromSourceType(srcType string) LangCode {
	upper := strings.ToUpper(strings.TrimSpace(srcType))
	if lang, ok := SourceTypeToLanguage[upper]; ok {
		return lang
	}
	if strings.HasPrefix(upper, "SQL") {
		return SQL
	}
	return Other
}

// FromExtension returns the classification for a file extension, with or without the dot.
func FromExtension(ext string) LangCode {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if lang, ok := ExtensionToLanguage[ext]; ok {
		return lang
	}
	return Other
}

// FromPath classifies a mirrored file by the extension of its path.
func FromPath(filePath string) LangCode {
	return FromExtension(filepath.Ext(filePath))
}

// ExtensionFor returns the local extension (with dot) used when mirroring a member of the
// given source type. Generic SQL types, CMD and bare RPG get neutral extensions so they do
// not collide with the extensions editor tooling claims for RPG.
func ExtensionFor(srcType string) string {
	upper := strings.ToUpper(strings.TrimSpace(srcType))
	switch {
	case strings.HasPrefix(upper, "SQL") && upper != "SQLRPGLE":
		return ".sqli"
	case upper == "CMD":
		return ".cmdi"
	case upper == "RPG":
		return ".rpgi"
	}
	return "." + strings.ToLower(upper)
}

// IsMemberFileName reports whether a directory entry name could be a mirrored source member.
// Names without an extension, .json files and dot files are structural, not members.
func IsMemberFileName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(name)
	if ext == "" || ext == "." {
		return false
	}
	return !strings.EqualFold(ext, ".json")
}
