package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wapanel/internal/auth"
	"github.com/sakif/wapanel/internal/render"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// run executes a fresh command tree and returns what it wrote to stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const greetingYAML = `name: saudacao
type: text
content: "{Olá|Oi} {{nome}}, {{cidade}}"
variables: [nome, cidade]
requiredVariables: [nome]
`

func TestRender_FirstAlternative(t *testing.T) {
	path := writeFile(t, "saudacao.yaml", greetingYAML)

	out, err := run(t, "", "render", path, "--first", "--var", "nome=Ana")
	require.NoError(t, err)

	var msg render.Message
	require.NoError(t, json.Unmarshal([]byte(out), &msg))
	assert.Equal(t, "Olá Ana, {{cidade}}", msg.Body)
}

func TestRender_BlankMissing(t *testing.T) {
	path := writeFile(t, "saudacao.yaml", greetingYAML)

	out, err := run(t, "", "render", path, "--first", "--var", "nome=Ana", "--missing", "blank")
	require.NoError(t, err)

	var msg render.Message
	require.NoError(t, json.Unmarshal([]byte(out), &msg))
	assert.Equal(t, "Olá Ana, ", msg.Body)
}

func TestRender_SeedIsReproducible(t *testing.T) {
	path := writeFile(t, "saudacao.yaml", greetingYAML)

	first, err := run(t, "", "render", path, "--seed", "42", "--var", "nome=Ana", "--var", "cidade=Recife")
	require.NoError(t, err)
	second, err := run(t, "", "render", path, "--seed", "42", "--var", "nome=Ana", "--var", "cidade=Recife")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRender_Errors(t *testing.T) {
	path := writeFile(t, "saudacao.yaml", greetingYAML)

	_, err := run(t, "", "render", path, "--first")
	assert.ErrorContains(t, err, "nome")

	_, err = run(t, "", "render", path, "--missing", "drop", "--var", "nome=Ana")
	assert.Error(t, err)

	_, err = run(t, "", "render", path, "--first", "--seed", "1", "--var", "nome=Ana")
	assert.Error(t, err)

	_, err = run(t, "", "render", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLint(t *testing.T) {
	good := writeFile(t, "good.yaml", greetingYAML)
	warn := writeFile(t, "warn.yaml", `name: aviso
type: text
content: "{Oi|Olá {{nome}}"
variables: [nome]
`)
	bad := writeFile(t, "bad.yaml", `name: oferta
type: button
content: "Oferta"
`)

	out, err := run(t, "", "lint", good, warn)
	require.NoError(t, err)
	assert.Contains(t, out, good+": ok")
	assert.Contains(t, out, "unclosed spin group")

	out, err = run(t, "", "lint", good, bad)
	assert.ErrorContains(t, err, "1 of 2")
	assert.Contains(t, out, bad+": invalid")
	assert.Contains(t, out, "buttons")
}

func TestLint_JSON(t *testing.T) {
	good := writeFile(t, "good.yaml", greetingYAML)

	out, err := run(t, "", "lint", "--json", good)
	require.NoError(t, err)

	var results []lintResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.True(t, results[0].Valid)
	assert.Equal(t, good, results[0].File)
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	out, err := run(t, "", "token", "alice", "--ttl", "5m")
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	userID, err := tokens.Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", userID)
}

func TestToken_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := run(t, "", "token", "alice")
	assert.Error(t, err)
}

func TestHashKey(t *testing.T) {
	t.Run("argument", func(t *testing.T) {
		out, err := run(t, "", "hash-key", "s3cret-key")
		require.NoError(t, err)

		verifier, err := auth.NewAdminVerifier(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.True(t, verifier.Verify("s3cret-key"))
	})

	t.Run("stdin", func(t *testing.T) {
		out, err := run(t, "from-stdin\n", "hash-key")
		require.NoError(t, err)

		verifier, err := auth.NewAdminVerifier(strings.TrimSpace(out))
		require.NoError(t, err)
		assert.True(t, verifier.Verify("from-stdin"))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := run(t, "", "hash-key")
		assert.Error(t, err)
	})
}

func TestSeed_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "wapanel.db")
	t.Setenv("DB_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted 5 system template(s)")

	out, err = run(t, "", "seed", "--owner", "platform")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted 0 system template(s)")
}
