package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apparentlymart/x86-meta/grammar"
	"github.com/apparentlymart/x86-meta/wrangle"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"rsc.io/diff"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := newRootCommand(logrus.New(), &outBuf, &errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeDefinitions(t *testing.T) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "general.def")
	require.NoError(t, os.WriteFile(filename, []byte("nop, 0x90\nmov =Gv !Ev, 0x89\naaa, 0x37, ia32\n"), 0o644))
	return filename
}

func TestCommandStdout(t *testing.T) {
	filename := writeDefinitions(t)

	stdout, _, err := execute(t, "--mode", "validator", "--bitness", "32", filename)
	require.NoError(t, err)

	want, err := wrangle.Generate(wrangle.Options{Mode: grammar.Validator, Bitness: 32, ReverseOperands: true}, filename)
	require.NoError(t, err)
	if stdout != want {
		t.Fatalf("wrong output:\n%s", diff.Format(stdout, want))
	}
}

func TestCommandOutputFile(t *testing.T) {
	filename := writeDefinitions(t)
	output := filepath.Join(t.TempDir(), "decoder.rl")

	stdout, _, err := execute(t, "-o", output, "--keep_operand_order", filename)
	require.NoError(t, err)
	require.Empty(t, stdout)

	got, err := os.ReadFile(output)
	require.NoError(t, err)
	want, err := wrangle.Generate(wrangle.Options{Mode: grammar.Decoder, Bitness: 64}, filename)
	require.NoError(t, err)
	if string(got) != want {
		t.Fatalf("wrong output:\n%s", diff.Format(string(got), want))
	}
}

func TestCommandDiagnostics(t *testing.T) {
	filename := writeDefinitions(t)

	_, stderr, err := execute(t, "--stats", "--explain", "--dump", "--filter", "mov", filename)
	require.NoError(t, err)
	require.Contains(t, stderr, "mov =Gq !Rq, 0x89")
	require.Contains(t, stderr, "2: mov =Gv !Ev, 0x89")
	require.Contains(t, strings.ToUpper(stderr), "VARIANTS")
	require.Contains(t, stderr, "Operands")
}

func TestCommandDumpShowsFields(t *testing.T) {
	filename := writeDefinitions(t)

	_, stderr, err := execute(t, "--dump", "--filter", "nop", filename)
	require.NoError(t, err)
	for _, field := range []string{"Name:", "Opcodes:", "Attributes:", "RequiredPrefixes:", "Rex:"} {
		require.Contains(t, stderr, field)
	}
	require.NotContains(t, stderr, "rex=W")
}

func TestCommandNoOutputOnError(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "bad.def")
	require.NoError(t, os.WriteFile(filename, []byte("nop, 0x90\nbad, 0xzz\n"), 0o644))
	output := filepath.Join(dir, "out.rl")

	_, _, err := execute(t, "-o", output, filename)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.def:2")
	require.NoFileExists(t, output)
}

func TestCommandUsageErrors(t *testing.T) {
	filename := writeDefinitions(t)

	for name, args := range map[string][]string{
		"no files":          {},
		"bad mode":          {"--mode", "assembler", filename},
		"bad bitness":       {"--bitness", "16", filename},
		"bad log level":     {"--log-level", "loud", filename},
		"config with files": {"--config", "x86-meta.toml", filename},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, args...)
			require.Error(t, err)
		})
	}
}

func TestCommandConfig(t *testing.T) {
	filename := writeDefinitions(t)
	dir := filepath.Dir(filename)
	cfgFile := filepath.Join(dir, "x86-meta.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
[[target]]
name = "decoder"
bitness = 32
inputs = ["general.def"]
output = "decoder_x86_32.rl"

[[target]]
name = "validator"
mode = "validator"
bitness = 64
inputs = ["general.def"]
output = "validator_x86_64.rl"
`), 0o644))

	_, _, err := execute(t, "--config", cfgFile, "-v")
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "decoder_x86_32.rl"))
	require.FileExists(t, filepath.Join(dir, "validator_x86_64.rl"))
}
