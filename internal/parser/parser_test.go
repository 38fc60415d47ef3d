package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_PlainFormats(t *testing.T) {
	for _, name := range []string{"readme.txt", "notes.md", "UPPER.TXT"} {
		text, err := ExtractText(name, []byte("hello\nworld"))
		require.NoError(t, err, name)
		assert.Equal(t, "hello\nworld", text)
	}
}

func TestExtractText_UnsupportedExtension(t *testing.T) {
	for _, name := range []string{"image.png", "archive.zip", "noextension"} {
		_, err := ExtractText(name, []byte("data"))
		require.Error(t, err, name)

		var unsupported *UnsupportedFormatError
		assert.True(t, errors.As(err, &unsupported), name)
	}
}

func TestExtractText_CorruptPDF(t *testing.T) {
	_, err := ExtractText("broken.pdf", []byte("not a pdf at all"))
	require.Error(t, err)

	var unsupported *UnsupportedFormatError
	assert.False(t, errors.As(err, &unsupported))
}

func TestExtractText_CorruptDocx(t *testing.T) {
	_, err := ExtractText("broken.docx", []byte("not a zip archive"))
	require.Error(t, err)
}

func TestStripDocxTags(t *testing.T) {
	in := `<w:p><w:r><w:t>first paragraph</w:t></w:r></w:p><w:p><w:r><w:t>second</w:t></w:r></w:p>`
	out := stripDocxTags(in)

	assert.Contains(t, out, "first paragraph")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "first paragraph\n")
	assert.NotContains(t, out, "<")
}
