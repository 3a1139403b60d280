package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the 8-byte PNG magic plus enough filler for content sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestValidateImageBySniffAcceptsPNG(t *testing.T) {
	mime, err := ValidateImageBySniff("foto-antiga.png", pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
}

func TestValidateImageBySniffRejectsBadExtension(t *testing.T) {
	_, err := ValidateImageBySniff("script.exe", pngHeader)
	assert.Error(t, err)

	_, err = ValidateImageBySniff("imagem.svg", []byte("<svg></svg>"))
	assert.Error(t, err)
}

func TestValidateImageBySniffRejectsHTMLContent(t *testing.T) {
	_, err := ValidateImageBySniff("imagem.png", []byte("<!DOCTYPE html><html><body>x</body></html>"))
	assert.Error(t, err)
}

func TestValidateImageBySniffAllowsOctetStreamByExtension(t *testing.T) {
	// HEIC often sniffs as octet-stream; the extension whitelist decides.
	mime, err := ValidateImageBySniff("retrato.heic", []byte{0x00, 0x00, 0x00, 0x18, 0x66, 0x74, 0x79, 0x70})
	require.NoError(t, err)
	assert.NotEmpty(t, mime)
}
