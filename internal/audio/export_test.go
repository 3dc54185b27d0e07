package audio

// Exports for testing.

// TempDirCreator exports tempDirCreator for testing.
type TempDirCreator = tempDirCreator

// FileRemover exports fileRemover for testing.
type FileRemover = fileRemover

// WithTempDir exports withTempDir for testing.
var WithTempDir = withTempDir

// WithFileRemover exports withFileRemover for testing.
var WithFileRemover = withFileRemover
