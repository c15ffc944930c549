package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/optimode/mxprobe"
)

func TestReadAddresses_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,Email\nAnn,ann@example.com\nBob,\nCid, cid@example.com \n"), 0o600))

	addrs, err := readAddresses(path, "email")
	require.NoError(t, err)
	assert.Equal(t, []string{"ann@example.com", "cid@example.com"}, addrs)
}

func TestReadAddresses_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rec := range [][]string{{"email", "company"}, {"a@example.com", "A"}, {"b@example.com", "B"}} {
		row := sheet.AddRow()
		for _, v := range rec {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "leads.xlsx")
	require.NoError(t, f.Save(path))

	addrs, err := readAddresses(path, "email")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, addrs)
}

func TestReadAddresses_Errors(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,phone\nAnn,123\n"), 0o600))
	_, err := readAddresses(path, "email")
	assert.ErrorIs(t, err, errNoColumn)

	_, err = readAddresses(filepath.Join(dir, "leads.pdf"), "email")
	assert.Error(t, err)
}

func TestDedupe(t *testing.T) {
	got := dedupe([]string{"a@Example.com", "b@example.com", "a@example.com", "A@example.com"})
	assert.Equal(t, []string{"a@Example.com", "b@example.com", "A@example.com"}, got)
}

func sampleResults() []mxprobe.VerificationResult {
	return []mxprobe.VerificationResult{
		{Address: "a@example.com", Status: mxprobe.StatusValid, Detail: "accepted", Attempts: 1, MXHost: "mx.example.com", SMTPCode: 250},
		{Address: "user@", Status: mxprobe.StatusInvalid, Detail: "format"},
		{Address: "c@gmial.com", Status: mxprobe.StatusUndetermined, Detail: "exhausted retries", Attempts: 3, Suggestion: "c@gmail.com"},
	}
}

func TestWriteResults_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, "csv", sampleResults()))

	rows, err := readCSV(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "email", rows[0][0])
	assert.Equal(t, []string{"a@example.com", "valid", "accepted", "1", "mx.example.com", "250", "", "false", ""}, rows[1])
	assert.Equal(t, "c@gmail.com", rows[3][8])
}

func TestWriteResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, "json", sampleResults()))

	var got []mxprobe.VerificationResult
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sampleResults(), got)
}

func TestWriteResults_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResults(&buf, "table", sampleResults()))
	out := buf.String()
	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "did you mean c@gmail.com?")
	// go-pretty upper-cases footers by default.
	assert.Contains(t, strings.ToLower(out), "1 valid / 1 invalid / 1 undetermined")
}

func TestWriteResults_UnknownFormat(t *testing.T) {
	assert.Error(t, writeResults(&bytes.Buffer{}, "yaml", nil))
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "-in is required")
}

func TestRun_FormatOnlyBatch(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("email\nuser@\nmissing-at\nuser@\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-env", filepath.Join(dir, "absent.env"),
		"-in", in,
		"-helo", "probe.example.com",
		"-from", "verify@example.com",
		"-format", "csv",
		"-no-progress",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3, "header plus two de-duplicated rows")
	assert.True(t, strings.HasPrefix(lines[1], "user@,invalid,format"))
}

func TestRun_BatchCeiling(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	require.NoError(t, os.WriteFile(in, []byte("email\na@\nb@\nc@\n"), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{
		"-env", filepath.Join(dir, "absent.env"),
		"-in", in,
		"-helo", "probe.example.com",
		"-from", "verify@example.com",
		"-max-batch", "2",
		"-no-progress",
	}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
}
