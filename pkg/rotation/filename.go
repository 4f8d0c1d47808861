package rotation

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ArtifactPrefix starts every artifact name
	ArtifactPrefix = "mysql-backup-"
	// ArtifactSuffix ends every artifact name
	ArtifactSuffix = ".sql.gz"
	// TimestampLayout is the UTC compact ISO-8601 timestamp in artifact names
	TimestampLayout = "20060102T150405Z"

	// AllDatabases is the name part used when every database is dumped
	AllDatabases = "all-databases"

	nameSeparator = "-"
)

// ArtifactComponents represents the parsed components of an artifact filename
type ArtifactComponents struct {
	NamePart  string
	Timestamp time.Time
}

// NamePart renders the database selection for a filename: the names joined
// by "-", with path separators replaced, or AllDatabases for an empty list.
func NamePart(names []string) string {
	if len(names) == 0 {
		return AllDatabases
	}

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	}
	return strings.Join(parts, nameSeparator)
}

// ArtifactName returns the filename for a dump of names taken at ts.
// Example: mysql-backup-shop-crm-20250101T000000Z.sql.gz
func ArtifactName(names []string, ts time.Time) string {
	return ArtifactPrefix + NamePart(names) + nameSeparator + ts.UTC().Format(TimestampLayout) + ArtifactSuffix
}

// ParseArtifactName parses an artifact filename, with or without a directory
// or key prefix.
func ParseArtifactName(filename string) (ArtifactComponents, error) {
	base := filepath.Base(filepath.FromSlash(filename))

	if !strings.HasPrefix(base, ArtifactPrefix) || !strings.HasSuffix(base, ArtifactSuffix) {
		return ArtifactComponents{}, fmt.Errorf("not a backup artifact: %s", base)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(base, ArtifactPrefix), ArtifactSuffix)
	idx := strings.LastIndex(body, nameSeparator)
	if idx <= 0 {
		return ArtifactComponents{}, fmt.Errorf("missing name part or timestamp: %s", base)
	}

	ts, err := time.Parse(TimestampLayout, body[idx+1:])
	if err != nil {
		return ArtifactComponents{}, fmt.Errorf("invalid timestamp in %s: %w", base, err)
	}

	return ArtifactComponents{
		NamePart:  body[:idx],
		Timestamp: ts,
	}, nil
}
