// Package persist implements the on-disk checkpoint format: three
// sibling files sharing a base path (vectors, graph topology, and
// id/metadata), plus an optional write-ahead log. The layout is
// bit-exact and versioned so a future reader can refuse files it
// doesn't understand instead of misinterpreting them.
package persist

const (
	vectorsMagic = "OMVC"
	graphMagic   = "OMGR"
	metaMagic    = "OMMD"

	formatVersion uint16 = 1
)

// suffixes of the three sibling files written under a configured base
// path, and of the optional write-ahead log.
const (
	VectorsSuffix = ".vectors"
	GraphSuffix   = ".graph"
	MetaSuffix    = ".meta"
	WALSuffix     = ".wal"
)
