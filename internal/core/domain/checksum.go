package domain

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// UnverifiableChecksum marks a digest computed with an algorithm the engine cannot check
const UnverifiableChecksum = "unverifiable"

// ChecksumAlgorithmMD5 is the only digest algorithm the engine verifies
const ChecksumAlgorithmMD5 = "MD5"

// NormalizeChecksum strips the quotes and blanks around an etag-style digest
func NormalizeChecksum(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), "\"")
}

// ChecksumsEqual compares two digests after normalization. The comparison is case-sensitive.
func ChecksumsEqual(a, b string) bool {
	na, nb := NormalizeChecksum(a), NormalizeChecksum(b)
	if na == "" || nb == "" || na == UnverifiableChecksum || nb == UnverifiableChecksum {
		return false
	}
	return na == nb
}

// ChecksumFromBase64 converts a base64 digest (Content-MD5 style) to lowercase hex
func ChecksumFromBase64(b64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(NormalizeChecksum(b64))
	if err != nil {
		return "", fmt.Errorf("invalid base64 digest: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// ChecksumToBase64 converts a hex digest to its base64 form
func ChecksumToBase64(hexDigest string) (string, error) {
	raw, err := hex.DecodeString(NormalizeChecksum(hexDigest))
	if err != nil {
		return "", fmt.Errorf("invalid hex digest: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// IsMultipartETag reports whether an etag was produced by a multipart upload (<hex>-<parts>),
// in which case it is not the MD5 of the content
func IsMultipartETag(etag string) bool {
	return strings.Contains(NormalizeChecksum(etag), "-")
}

// IsSupportedChecksumAlgorithm reports whether the engine can verify digests of this algorithm
func IsSupportedChecksumAlgorithm(algorithm string) bool {
	return strings.EqualFold(strings.TrimSpace(algorithm), ChecksumAlgorithmMD5)
}

// ChecksumForAlgorithm returns the normalized digest, or UnverifiableChecksum when the algorithm is unsupported
func ChecksumForAlgorithm(algorithm, value string) string {
	if !IsSupportedChecksumAlgorithm(algorithm) {
		return UnverifiableChecksum
	}
	return NormalizeChecksum(value)
}

// ChecksumMetadataKey is the user metadata key that carries the hex MD5 of an uploaded object
const ChecksumMetadataKey = "md5"

// ComputeMD5 streams r and returns its hex MD5 and byte count
func ComputeMD5(r io.Reader) (string, int64, error) {
	hash := md5.New()
	n, err := io.Copy(hash, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(hash.Sum(nil)), n, nil
}

// MetadataChecksum looks up ChecksumMetadataKey case-insensitively
func MetadataChecksum(metadata map[string]string) string {
	for k, v := range metadata {
		if strings.EqualFold(k, ChecksumMetadataKey) || strings.EqualFold(k, "x-amz-meta-"+ChecksumMetadataKey) {
			return NormalizeChecksum(v)
		}
	}
	return ""
}
