package protocol

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeResourceContentsText(t *testing.T) {
	contents := NormalizeResourceContents([]interface{}{
		map[string]interface{}{
			"uri":      "ui://widget/index.html",
			"mimeType": "text/html",
			"text":     "<html></html>",
		},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, "ui://widget/index.html", contents[0].URI)
	assert.Equal(t, "text/html", contents[0].MimeType)
	assert.Equal(t, "<html></html>", contents[0].Text)
	assert.Nil(t, contents[0].Data)
}

func TestNormalizeResourceContentsBlob(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4e, 0x47, 0x0d}
	contents := NormalizeResourceContents([]interface{}{
		map[string]interface{}{
			"uri":      "ui://widget/icon.png",
			"mimeType": "image/png",
			"blob":     base64.StdEncoding.EncodeToString(payload),
		},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, payload, contents[0].Data)
	assert.Len(t, contents[0].Data, len(payload))
	assert.Empty(t, contents[0].Text)
}

func TestNormalizeResourceContentsNeither(t *testing.T) {
	contents := NormalizeResourceContents([]interface{}{
		map[string]interface{}{"uri": "ui://widget/empty"},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, "ui://widget/empty", contents[0].URI)
	assert.Equal(t, DefaultMimeType, contents[0].MimeType)
	assert.Empty(t, contents[0].Text)
	assert.Nil(t, contents[0].Data)
}

func TestNormalizeResourceContentsSkipsMalformed(t *testing.T) {
	contents := NormalizeResourceContents([]interface{}{
		"not an object",
		map[string]interface{}{"uri": "ui://bad-blob", "blob": "!!! not base64 !!!"},
		map[string]interface{}{"uri": "ui://good", "text": "ok"},
	})

	require.Len(t, contents, 1)
	assert.Equal(t, "ui://good", contents[0].URI)
}
