package rotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactName(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{
			name:  "all databases",
			names: nil,
			want:  "mysql-backup-all-databases-20250102T030405Z.sql.gz",
		},
		{
			name:  "single database",
			names: []string{"shop"},
			want:  "mysql-backup-shop-20250102T030405Z.sql.gz",
		},
		{
			name:  "multiple databases keep input order",
			names: []string{"shop", "crm"},
			want:  "mysql-backup-shop-crm-20250102T030405Z.sql.gz",
		},
		{
			name:  "path separators replaced",
			names: []string{"a/b", `c\d`},
			want:  "mysql-backup-a_b-c_d-20250102T030405Z.sql.gz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ArtifactName(tt.names, ts))
		})
	}
}

func TestArtifactNameUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, loc)
	assert.Equal(t, "mysql-backup-shop-20250102T010405Z.sql.gz", ArtifactName([]string{"shop"}, ts))
}

func TestParseArtifactName(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("round trip", func(t *testing.T) {
		for _, names := range [][]string{nil, {"shop"}, {"shop", "crm"}} {
			got, err := ParseArtifactName(ArtifactName(names, ts))
			require.NoError(t, err)
			assert.Equal(t, NamePart(names), got.NamePart)
			assert.True(t, ts.Equal(got.Timestamp))
		}
	})

	t.Run("with key prefix", func(t *testing.T) {
		got, err := ParseArtifactName("daily/mysql-backup-shop-20250102T030405Z.sql.gz")
		require.NoError(t, err)
		assert.Equal(t, "shop", got.NamePart)
	})

	invalid := []string{
		"notes.txt",
		"mysql-backup-shop.sql.gz",
		"mysql-backup--20250102T030405Z.sql.gz",
		"mysql-backup-shop-2025-01-02.sql.gz",
		"mysql-backup-shop-20250102T030405Z.sql",
	}
	for _, name := range invalid {
		t.Run("invalid "+name, func(t *testing.T) {
			_, err := ParseArtifactName(name)
			assert.Error(t, err)
		})
	}
}
