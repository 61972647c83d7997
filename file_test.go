package prismatenant

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func writeSchema(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "schema.prisma")
	require.NoError(t, ioutil.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestApplyFile(t *testing.T) {
	path := writeSchema(t, crmSchema)

	core, logs := observer.New(zap.InfoLevel)
	cfg := testConfig
	cfg.SchemaPath = path
	inj, err := NewInjector(cfg, zap.New(core))
	require.NoError(t, err)

	result, err := inj.ApplyFile(false)
	require.NoError(t, err)
	assert.True(t, result.Changed())

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Schema, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// Skipped models are logged.
	assert.Equal(t, 2, logs.FilterMessage("skipping model").Len())
	assert.Equal(t, 1, logs.FilterMessage("schema written").Len())

	// Second run leaves the file alone.
	result, err = inj.ApplyFile(false)
	require.NoError(t, err)
	assert.False(t, result.Changed())
	data, err = ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, result.Schema, string(data))
}

func TestApplyFileDryRun(t *testing.T) {
	path := writeSchema(t, crmSchema)
	cfg := testConfig
	cfg.SchemaPath = path
	inj, err := NewInjector(cfg, nil)
	require.NoError(t, err)

	result, err := inj.ApplyFile(true)
	require.NoError(t, err)
	assert.True(t, result.Changed())

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, crmSchema, string(data))
}

func TestApplyFileMissing(t *testing.T) {
	cfg := testConfig
	cfg.SchemaPath = filepath.Join(t.TempDir(), "nope.prisma")
	inj, err := NewInjector(cfg, nil)
	require.NoError(t, err)

	_, err = inj.ApplyFile(false)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}
