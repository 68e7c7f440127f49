package content_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Deyond-Management/deyondcrypt/internal/content"
)

func TestTextRoundTrip(t *testing.T) {
	blob, err := content.Encode(content.NewText("hello"))
	require.NoError(t, err)

	c, err := content.Decode(blob)
	require.NoError(t, err)
	require.Equal(t, content.TypeText, c.Type)
	require.Equal(t, "hello", c.Text.Body)
}

func TestVariantsRoundTrip(t *testing.T) {
	cases := map[string]content.Content{
		"image": {
			Type:  content.TypeImage,
			Image: &content.Image{MimeType: "image/png", Data: []byte{1, 2}, Width: 4, Height: 4},
		},
		"file": {
			Type: content.TypeFile,
			File: &content.File{Name: "doc.pdf", MimeType: "application/pdf", Data: []byte{3}},
		},
		"transaction": {
			Type:        content.TypeTransaction,
			Transaction: &content.Transaction{Hash: "0xdead", ChainID: "1", Amount: "1.5", Symbol: "ETH"},
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			blob, err := content.Encode(c)
			require.NoError(t, err)
			decoded, err := content.Decode(blob)
			require.NoError(t, err)
			require.Equal(t, c, decoded)
		})
	}
}

func TestEncodeRejectsMismatch(t *testing.T) {
	cases := map[string]content.Content{
		"text without payload":      {Type: content.TypeText},
		"image without data":        {Type: content.TypeImage, Image: &content.Image{MimeType: "image/png"}},
		"file without name":         {Type: content.TypeFile, File: &content.File{Data: []byte{1}}},
		"transaction without hash":  {Type: content.TypeTransaction, Transaction: &content.Transaction{ChainID: "1"}},
		"unknown type":              {Type: content.Type("sticker")},
		"known type, wrong payload": {Type: content.TypeText, Image: &content.Image{}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := content.Encode(c)
			require.Error(t, err)
		})
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := content.Decode([]byte(`{"type":"sticker"}`))
	require.ErrorIs(t, err, content.ErrUnknownType)

	_, err = content.Decode([]byte(`{"type":"text"}`))
	require.Error(t, err)

	_, err = content.Decode([]byte(`not json`))
	require.Error(t, err)
}
