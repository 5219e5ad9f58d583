package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeList(t *testing.T) {
	values := []string{"digital", "hardback"}
	encoded := EncodeList(values)
	assert.Equal(t, `["digital","hardback"]`, encoded)
	assert.Equal(t, values, DecodeList(encoded))

	assert.Equal(t, "", EncodeList(nil))
	assert.Nil(t, DecodeList(""))
}

func TestDecodeListMalformed(t *testing.T) {
	// Legacy rows may hold comma-joined text instead of JSON.
	assert.Equal(t, []string{"digital", "softback"}, DecodeList("digital,softback"))

	// Anything else degrades to a single-element list, never an error.
	assert.Equal(t, []string{"digital"}, DecodeList("digital"))
	assert.Equal(t, []string{"[broken"}, DecodeList("[broken"))
}

func TestEncodeDecodeDetails(t *testing.T) {
	details := map[string]any{"warehouse": "B-12", "print_run": "第二"}
	decoded := DecodeDetails(EncodeDetails(details))
	assert.Equal(t, "B-12", decoded["warehouse"])
	assert.Equal(t, "第二", decoded["print_run"])

	assert.Equal(t, map[string]any{}, DecodeDetails(""))
	assert.Equal(t, map[string]any{}, DecodeDetails("not json"))
	assert.Equal(t, "", EncodeDetails(nil))
}

func TestBookValidate(t *testing.T) {
	book := &Book{
		Title:       "Dunes of Glass",
		PublishDate: "2024-03-01",
		Formats:     []string{FormatDigital},
		PageCount:   312,
	}
	require.NoError(t, book.Validate())

	missingTitle := *book
	missingTitle.Title = "   "
	assert.Error(t, missingTitle.Validate())

	missingDate := *book
	missingDate.PublishDate = ""
	assert.Error(t, missingDate.Validate())

	noFormats := *book
	noFormats.Formats = nil
	assert.Error(t, noFormats.Validate())

	badFormat := *book
	badFormat.Formats = []string{"vinyl"}
	err := badFormat.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vinyl")

	negativePages := *book
	negativePages.PageCount = -1
	err = negativePages.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")

	// Books without a known page count still validate.
	zeroPages := *book
	zeroPages.PageCount = 0
	assert.NoError(t, zeroPages.Validate())
}
