package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fietser28/studio/engine"
	"github.com/fietser28/studio/internal/reflectdb"
)

func TestRun_AllVersions(t *testing.T) {
	var out bytes.Buffer
	status := run(nil, &out, false)

	assert.Equal(t, 1, status, "v8 declares SCROLL_WITH_ARROW on Spinbox")
	assert.Contains(t, out.String(), "LVGL 9.0: 7 widget types, flags agree\n")
	assert.Contains(t, out.String(), "<LVGLReflectEditorRuntime>\n\tLVGL version: 8.3\n\tSpinbox\n")
	assert.NotContains(t, out.String(), "\x1b[31m")
}

func TestRun_SingleVersion(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 0, run([]string{"-engine", "v9"}, &out, false))
	assert.Equal(t, "LVGL 9.0: 7 widget types, flags agree\n", out.String())
}

func TestRun_ColorsMismatches(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run([]string{"-engine", "8.3"}, &out, true))
	assert.True(t, strings.HasPrefix(out.String(), "\x1b[31m<LVGLReflectEditorRuntime>"))
}

func TestRun_StoredReportsAreReused(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reflect.db")

	var first bytes.Buffer
	run([]string{"-db", dbPath}, &first, false)

	db, err := reflectdb.Open(dbPath)
	require.NoError(t, err)
	stored, err := db.Get(engine.V9)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	var second bytes.Buffer
	run([]string{"-db", dbPath}, &second, false)
	assert.Equal(t, first.String(), second.String())

	db, err = reflectdb.Open(dbPath)
	require.NoError(t, err)
	again, err := db.Get(engine.V9)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.True(t, stored.ReflectedAt.Equal(again.ReflectedAt), "reused reports are not rewritten")

	var forced bytes.Buffer
	run([]string{"-db", dbPath, "-force"}, &forced, false)
	assert.Equal(t, first.String(), forced.String())
}

func TestRun_BadArguments(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 2, run([]string{"-nope"}, &out, false))
	assert.Equal(t, 2, run([]string{"-engine", "v7"}, &out, false))
	assert.Equal(t, 1, run([]string{"-file", filepath.Join(t.TempDir(), "missing.yaml")}, &out, false))
}
