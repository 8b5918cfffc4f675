package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent(t *testing.T) {
	info := Current()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}

func TestInfo_String(t *testing.T) {
	info := Info{
		Version:   "v1.2.0",
		Commit:    "abc123def456",
		Date:      "2026-01-01T00:00:00Z",
		GoVersion: "go1.24.4",
		Module:    "github.com/rowpipe/rowpipe",
	}

	str := info.String()
	assert.Contains(t, str, "rowpipe v1.2.0")
	assert.Contains(t, str, "commit: abc123d", "commit should be shortened")
	assert.Contains(t, str, "built:  2026-01-01T00:00:00Z")
	assert.Contains(t, str, "go:     go1.24.4")
	assert.Contains(t, str, "module: github.com/rowpipe/rowpipe")
	assert.NotContains(t, str, "(dirty)")
}

func TestInfo_StringDirty(t *testing.T) {
	info := Info{Version: "v1.2.0", Dirty: true}

	assert.Contains(t, info.String(), "rowpipe v1.2.0 (dirty)")
}

func TestInfo_StringOmitsUnknownFields(t *testing.T) {
	str := Info{Version: "dev", GoVersion: "go1.24.4"}.String()

	assert.NotContains(t, str, "commit:")
	assert.NotContains(t, str, "built:")
	assert.NotContains(t, str, "module:")
}

func TestUserAgent(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "v1.2.0"
	assert.Equal(t, "rowpipe/v1.2.0", UserAgent())
}
