package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name"`
	Port    int               `json:"port"`
	Origins []string          `json:"origins"`
	Labels  map[string]string `json:"labels"`
}

func write(t *testing.T, path, contents string) {
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "config.json5")
	write(t, name, `{
		// comments and trailing commas are fine
		name: "server",
		port: 8080,
		labels: {a: "1"},
	}`)

	config, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{Name: "server", Port: 8080, Labels: map[string]string{"a": "1"}}, config)

	write(t, filepath.Join(dir, "config.local.json5"), `{port: 9090, origins: ["http://a"]}`)
	config, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "server", config.Name, "values missing from the override are kept")
	require.Equal(t, 9090, config.Port)
	require.Equal(t, []string{"http://a"}, config.Origins)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "app.json5"), `{name: "root"}`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	config, err := ReadRecursively[testConfig]("app.json5")
	require.NoError(t, err)
	require.Equal(t, "root", config.Name)
}

func TestEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	write(t, envFile, "CONFIGUTIL_TEST_A=from-file\nCONFIGUTIL_TEST_B=from-file\n")
	t.Setenv("CONFIGUTIL_TEST_B", "from-env")

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))
	t.Cleanup(func() { os.Unsetenv("CONFIGUTIL_TEST_A") })

	a, b, c := "default", "default", "default"
	Env(&a, "CONFIGUTIL_TEST_A")
	Env(&b, "CONFIGUTIL_TEST_B")
	Env(&c, "CONFIGUTIL_TEST_UNSET")
	require.Equal(t, "from-file", a)
	require.Equal(t, "from-env", b)
	require.Equal(t, "default", c)
}
