package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/skdltmxn/classfile-go/classfile"
)

func buildJar(t *testing.T, entries map[string][]byte, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func classBytes(t *testing.T, name string) []byte {
	t.Helper()
	data, err := classfile.New(name, "", false).Bytes()
	require.NoError(t, err)
	return data
}

func TestScan(t *testing.T) {
	entries := map[string][]byte{"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n")}
	order := []string{"META-INF/MANIFEST.MF"}
	for i := range 20 {
		name := fmt.Sprintf("p/C%d.class", i)
		entries[name] = classBytes(t, fmt.Sprintf("p.C%d", i))
		order = append(order, name)
	}
	entries["p/Broken.class"] = []byte{0xca, 0xfe}
	order = append(order, "p/Broken.class")

	data := buildJar(t, entries, order)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	s := &Scanner{Workers: 4, Log: zap.New(core)}
	results, err := s.Scan(context.Background(), zr)
	require.NoError(t, err)
	require.Len(t, results, 21)

	for i := range 20 {
		require.NoError(t, results[i].Err)
		assert.Equal(t, order[i+1], results[i].Name)
		assert.Equal(t, fmt.Sprintf("p.C%d", i), results[i].Class.Name())
	}
	last := results[20]
	assert.Equal(t, "p/Broken.class", last.Name)
	assert.Nil(t, last.Class)
	assert.ErrorIs(t, last.Err, classfile.ErrMalformedClassFile)

	warnings := logs.FilterMessage("skipping malformed class file").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "p/Broken.class", warnings[0].ContextMap()["entry"])
}

func TestScanCancelled(t *testing.T) {
	data := buildJar(t, map[string][]byte{"A.class": classBytes(t, "A")}, []string{"A.class"})
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var s Scanner
	_, err = s.Scan(ctx, zr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.jar")
	data := buildJar(t, map[string][]byte{"q/B.class": classBytes(t, "q.B")}, []string{"q/B.class"})
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var s Scanner
	results, err := s.ScanFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "q.B", results[0].Class.Name())

	_, err = s.ScanFile(context.Background(), filepath.Join(t.TempDir(), "none.jar"))
	assert.Error(t, err)
}

func TestIsArchive(t *testing.T) {
	assert.True(t, IsArchive("lib/a.jar"))
	assert.True(t, IsArchive("A.ZIP"))
	assert.False(t, IsArchive("A.class"))
}
