package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTheme(t *testing.T) {
	theme, ok := ParseTheme(" Space ")
	assert.True(t, ok)
	assert.Equal(t, ThemeSpace, theme)

	_, ok = ParseTheme("western")
	assert.False(t, ok)
}

func TestParseAssetType(t *testing.T) {
	tests := []struct {
		in   string
		want AssetType
		ok   bool
	}{
		{"character", AssetCharacter, true},
		{"characters", AssetCharacter, true},
		{"Props", AssetProp, true},
		{"background", AssetBackground, true},
		{"sound", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAssetType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDragPayload(t *testing.T) {
	p, err := ParseDragPayload([]byte(`{"type":"characters","assetId":"7","asset":{"id":"7","name":"Knight"}}`))
	require.NoError(t, err)
	assert.Equal(t, AssetCharacter, p.Type)
	assert.Equal(t, "7", p.AssetID)
	assert.Equal(t, "Knight", p.Asset.Name)

	_, err = ParseDragPayload([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseDragPayload([]byte(`{"type":"sound","assetId":"1"}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseDragPayload([]byte(`{"type":"prop","assetId":"  "}`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestStoryRecordRoundTrip(t *testing.T) {
	bg := "forest.png"
	s := Story{
		ID:     "s1",
		Title:  "Lost Kitten",
		Theme:  ThemeAdventure,
		Scenes: []Scene{{ID: "a", Background: &bg}},
	}
	got := NewStoryRecord(s).ToStory()
	assert.Equal(t, s, got)

	rec := NewStoryRecord(s)
	rec.Theme = "unknown"
	assert.Equal(t, DefaultTheme, rec.ToStory().Theme)
}
