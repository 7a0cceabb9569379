package scpath

const (
	// SourceDir is the name of the source control directory
	SourceDir = ".source"

	// ObjectsDir holds loose objects fanned out by the first two hex digits
	ObjectsDir = "objects"

	// ObjectsDB is the bbolt file used by the bolt object backend
	ObjectsDB = "objects.db"

	// RefsDir is the name of the refs directory
	RefsDir = "refs"

	// HeadsDir is the name of the heads directory (branches)
	HeadsDir = "heads"

	// TagsDir is the name of the tags directory
	TagsDir = "tags"

	// LogsDir mirrors the refs layout with one movement log per ref
	LogsDir = "logs"

	// IndexFile is the name of the index file
	IndexFile = "index"

	// ConfigFile is the name of the repository config file
	ConfigFile = "config.json"

	// HeadFile is the name of the HEAD file
	HeadFile = "HEAD"

	// LockSuffix is appended to a file name to form its lockfile
	LockSuffix = ".lock"

	// GCLockFile is held while the collector deletes objects
	GCLockFile = "gc.lock"
)
