// auditcfg/tools/policy_dump/policy_dump_main_test.go

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rgehrsitz/auditcfg/pkg/config"
	"rgehrsitz/auditcfg/pkg/store"
)

const samplePolicy = `[option]
log_level = 'notice'

[ddl_only]
class = 'ddl'
database = 'postgres'
`

func seedRedis(t *testing.T) *miniredis.Miniredis {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	s, err := store.NewRedisStore(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer s.Close()

	snap, err := config.Parse(samplePolicy)
	require.NoError(t, err)
	require.NoError(t, s.PublishSnapshot(context.Background(), "pgaudit:snapshot", "", snap))
	return mr
}

func TestParseFlagsDefaults(t *testing.T) {
	opts, err := parseFlags([]string{})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.addr)
	assert.Equal(t, "pgaudit:snapshot", opts.key)
	assert.Equal(t, "yaml", opts.format)
	assert.False(t, opts.list)

	_, err = parseFlags([]string{"-format", "xml"})
	assert.Error(t, err)
}

func TestDumpFromRedisYAML(t *testing.T) {
	mr := seedRedis(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-addr", mr.Addr()}, &out))
	assert.Contains(t, out.String(), "name: ddl_only")
	assert.Contains(t, out.String(), "log_level: NOTICE")
}

func TestDumpFromRedisJSON(t *testing.T) {
	mr := seedRedis(t)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-addr", mr.Addr(), "-format", "json"}, &out))

	var snap config.Snapshot
	require.NoError(t, json.Unmarshal(out.Bytes(), &snap))
	require.NotNil(t, snap.Rule("ddl_only"))
	assert.Equal(t, config.ClassDDL, snap.Rule("ddl_only").Field("class").Bitmap)
}

func TestDumpMissingKey(t *testing.T) {
	mr := seedRedis(t)

	var out bytes.Buffer
	err := run(context.Background(), []string{"-addr", mr.Addr(), "-key", "absent"}, &out)
	assert.Error(t, err)
}

func TestListKeys(t *testing.T) {
	mr := seedRedis(t)
	require.NoError(t, mr.Set("pgaudit:staging", "{}"))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-addr", mr.Addr(), "-list", "-key", "pgaudit:*"}, &out))
	lines := strings.Fields(out.String())
	assert.ElementsMatch(t, []string{"pgaudit:snapshot", "pgaudit:staging"}, lines)
}

func TestDumpLocalPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pgaudit.conf")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicy), 0o644))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-policy", path}, &out))
	assert.Contains(t, out.String(), "name: ddl_only")
}

func TestWatchStopsOnCancel(t *testing.T) {
	mr := seedRedis(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	assert.NoError(t, run(ctx, []string{"-addr", mr.Addr(), "-watch"}, &out))
}
