package align

// Exports for testing.

// FileOps exports fileOps so tests can inject failing renames.
type FileOps = fileOps

// WithFiles exports withFiles for testing.
var WithFiles = withFiles

// CandidatePath exports candidatePath for testing.
var CandidatePath = candidatePath
