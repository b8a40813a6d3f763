package ignore

// DefaultIgnorePatterns are names and globs under a mirror root that never hold mirrored
// members. Sidecar directories are added per Matcher from its layout.
var DefaultIgnorePatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// IDE / Editor
	".idea",
	".vscode",
	".vs",
	"*.swp",
	"*.swo",
	"*~",
	"*.tmp",
	"*.bak",

	// OS files
	".DS_Store",
	"Thumbs.db",
	"desktop.ini",

	// Tooling output kept next to mirrors
	"node_modules",
	"*.log",
}
