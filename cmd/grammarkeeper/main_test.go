package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/b4fun/grammarkeeper-go/versionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T, driver string) *testEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "grammarkeeper.yaml")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(`
grammar:
  version_storage: %[1]s/versions
  store_driver: %[2]s
  sqlite_path: %[1]s/versions.db
  backup_dir: %[1]s/backups
  changelog_file: %[1]s/changelog.md
logging:
  level: error
`, dir, driver)), 0o644))
	return &testEnv{dir: dir, config: config}
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	defer a.close()

	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCommand_SelfExtends(t *testing.T) {
	for _, driver := range []string{"fs", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			env := newTestEnv(t, driver)
			source := env.writeFile(t, "loop.bsl", "Для каждого x Из arr Цикл\n    Сообщить(x);\nКонецЦикла;\n")

			out, err := env.run(t, "parse", "--no-extend", source)
			require.Error(t, err)
			assert.Contains(t, out, "-> 1: Для каждого x Из arr Цикл")

			out, err = env.run(t, "parse", "-o", "json", source)
			require.NoError(t, err)

			var report map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &report))
			assert.Equal(t, "success", report["state"])
			assert.EqualValues(t, 1, report["attempts"])

			out, err = env.run(t, "versions")
			require.NoError(t, err)
			assert.Equal(t, 3, len(strings.Split(strings.TrimSpace(out), "\n")))

			changelog, err := os.ReadFile(filepath.Join(env.dir, "changelog.md"))
			require.NoError(t, err)
			assert.Contains(t, string(changelog), "committed")

			manifest, err := versionstore.ReadManifest(filepath.Join(env.dir, "backups"))
			require.NoError(t, err)
			require.NotNil(t, manifest)
		})
	}
}

func TestExtendRollbackExport(t *testing.T) {
	env := newTestEnv(t, "fs")

	out, err := env.run(t, "info", "--json")
	require.NoError(t, err)
	var info struct {
		CurrentVersionID string `json:"current_version_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	initial := info.CurrentVersionID

	rules := env.writeFile(t, "select.peg", `# UPDATE_RULE: statement |= select_statement
# UPDATE_RULE: missing |= select_statement
select_statement = "Выбор" expression "КонецВыбора" ";"?
`)
	out, err = env.run(t, "extend", rules, "--description", "select")
	require.NoError(t, err)
	assert.Contains(t, out, "updated rule: statement |= select_statement")
	assert.Contains(t, out, "rule not found, skipped: missing |= select_statement")

	exported := filepath.Join(env.dir, "export.peg")
	_, err = env.run(t, "export", exported)
	require.NoError(t, err)
	data, err := os.ReadFile(exported)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Extension: select")

	_, err = env.run(t, "rollback", initial)
	require.NoError(t, err)

	out, err = env.run(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, "rollback to "+initial)
	assert.NotContains(t, out, "select_statement")

	_, err = env.run(t, "rollback", "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	assert.Error(t, err)
}

func TestBackupCommand(t *testing.T) {
	env := newTestEnv(t, "fs")
	target := filepath.Join(env.dir, "manual-backup")

	out, err := env.run(t, "backup", target)
	require.NoError(t, err)
	assert.Contains(t, out, "backed up 1 versions")

	_, err = os.Stat(filepath.Join(target, versionstore.ManifestFile))
	assert.NoError(t, err)
}
