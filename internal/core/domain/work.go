package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Work is the deposit whose files are migrated
type Work struct {
	ID        uuid.UUID
	DOI       string
	ARK       string
	UserID    *string
	Migrated  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DestinationPrefix is the key namespace of the work in the destination bucket
func (w Work) DestinationPrefix() string {
	doi := strings.TrimPrefix(strings.TrimSpace(w.DOI), "doi:")
	return fmt.Sprintf("%s/%s", strings.Trim(doi, "/"), w.ID)
}

// SourcePrefix is the key namespace of the work in the side-channel bucket, derived from its ARK
func (w Work) SourcePrefix() string {
	return ARKPath(w.ARK)
}

// ARKPath strips the ark scheme from an identifier ("ark:/88435/dsp01x" -> "88435/dsp01x")
func ARKPath(ark string) string {
	path := strings.TrimSpace(ark)
	path = strings.TrimPrefix(path, "ark:")
	return strings.Trim(path, "/")
}

// LegacyDestinationKey is the destination key of a file coming from the legacy repository
func LegacyDestinationKey(destinationPrefix, name string) string {
	return fmt.Sprintf("%s/data_space_%s", strings.TrimSuffix(destinationPrefix, "/"), name)
}

// RelocateKey moves a key from the source prefix to the destination prefix
func RelocateKey(key, sourcePrefix, destinationPrefix string) string {
	rel := strings.TrimPrefix(key, strings.TrimSuffix(sourcePrefix, "/"))
	rel = strings.TrimPrefix(rel, "/")
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(destinationPrefix, "/"), rel)
}
