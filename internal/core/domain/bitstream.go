package domain

import (
	"errors"
	"path"
)

// Bitstream describes one file resource exposed by the legacy repository
type Bitstream struct {
	ItemID            int64
	Name              string
	RetrieveLink      string
	ChecksumAlgorithm string
	ChecksumValue     string
}

// Checksum returns the normalized digest, or UnverifiableChecksum for unsupported algorithms
func (b Bitstream) Checksum() string {
	return ChecksumForAlgorithm(b.ChecksumAlgorithm, b.ChecksumValue)
}

// Verifiable reports whether the bitstream digest can be checked by the engine
func (b Bitstream) Verifiable() bool {
	return IsSupportedChecksumAlgorithm(b.ChecksumAlgorithm)
}

// DownloadResult is the outcome of downloading the bitstream at Index of the input.
// Exactly one of Path and Err is meaningful.
type DownloadResult struct {
	Index     int
	Bitstream Bitstream
	Path      string
	Checksum  string
	Size      int64
	Err       error
}

// OK reports whether the bitstream was downloaded and verified
func (r DownloadResult) OK() bool {
	return r.Err == nil
}

// StagedFile is a legacy file waiting in local staging.
// A non-empty Failure marks a bitstream that could not be staged; it has no LocalPath.
type StagedFile struct {
	Name      string
	LocalPath string
	Checksum  string
	Size      int64
	Failure   string
}

// NewStagedFile converts a download result. Unverifiable bitstreams yield ok=false, they are not migrated.
func NewStagedFile(result DownloadResult) (StagedFile, bool) {
	name := path.Base(result.Bitstream.Name)
	switch {
	case result.OK():
		return StagedFile{
			Name:      name,
			LocalPath: result.Path,
			Checksum:  result.Checksum,
			Size:      result.Size,
		}, true
	case errors.Is(result.Err, ErrUnverifiableDigest):
		return StagedFile{}, false
	case errors.Is(result.Err, ErrChecksumMismatch):
		return StagedFile{Name: name, Checksum: result.Bitstream.Checksum(), Failure: MigrateErrorChecksumMismatch}, true
	default:
		return StagedFile{Name: name, Checksum: result.Bitstream.Checksum(), Failure: TransferErrorMessage(result.Err.Error())}, true
	}
}
