package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()
	path := filepath.Join(t.TempDir(), "nota.txt")
	require.NoError(t, os.WriteFile(path, []byte("Selic mantida em 13.75%."), 0o600))

	text, err := e.Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Selic mantida em 13.75%.", text)
}

func TestExtractUnknownExtensionTreatedAsPlain(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte("conteúdo qualquer"), ".dat")
	require.NoError(t, err)
	assert.Equal(t, "conteúdo qualquer", text)
}

func TestExtractInvalidUTF8Replaced(t *testing.T) {
	e := NewExtractor()
	text, err := e.ExtractBytes([]byte{0x66, 0xff, 0x6f}, ".txt")
	require.NoError(t, err)
	assert.Contains(t, text, "�")
	assert.Contains(t, text, "f")
}

func TestExtractMissingFile(t *testing.T) {
	e := NewExtractor()
	_, err := e.Extract(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestExtractInvalidPDF(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractBytes([]byte("not a pdf"), ".pdf")
	assert.Error(t, err)
}
