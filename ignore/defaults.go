package ignore

// DefaultPatterns are always excluded from scanning: dependency trees, build
// output, VCS metadata, binaries, and generated artifacts hold nothing an
// architecture scan can use.
var DefaultPatterns = []string{
	// Version control
	".git",
	".svn",
	".hg",

	// Dependencies
	"node_modules",
	"vendor",
	"bower_components",

	// Build output
	"dist",
	"build",
	"out",
	"target",
	"bin",
	"obj",
	".next",

	// Python
	"__pycache__",
	"*.pyc",
	".venv",
	"venv",
	".pytest_cache",

	// Caches and checkpoints
	".cache",
	".audit_cache",
	"coverage",

	// IDE / editor
	".idea",
	".vscode",
	"*.swp",
	"*~",

	// OS files
	".DS_Store",
	"Thumbs.db",

	// Binaries and archives
	"*.exe",
	"*.dll",
	"*.so",
	"*.dylib",
	"*.o",
	"*.a",
	"*.class",
	"*.jar",
	"*.zip",
	"*.tar.gz",

	// Media
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.ico",
	"*.pdf",
	"*.woff",
	"*.woff2",

	// Generated / lock files
	"*.min.js",
	"*.min.css",
	"*.map",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"poetry.lock",
	"Cargo.lock",
	"go.sum",
}
