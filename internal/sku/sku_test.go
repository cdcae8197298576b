package sku

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractUnderscore(t *testing.T) {
	t.Run("name with underscore suffix", func(t *testing.T) {
		assert.Equal(t, "ABCDEFGHIJKLM", Extract("ABCDEFGHIJKLM_1.jpg", ModeUnderscore))
	})

	t.Run("nested object key", func(t *testing.T) {
		assert.Equal(t, "SKU123ABC45", Extract("incoming/SKU123ABC45_main.jpg", ModeUnderscore))
	})

	t.Run("no underscore falls back to whole stem", func(t *testing.T) {
		assert.Equal(t, "251OM0M43B00", Extract("251OM0M43B00.jpg", ModeUnderscore))
	})

	t.Run("leading underscore falls back to whole stem", func(t *testing.T) {
		assert.Equal(t, "_oddname", Extract("_oddname.png", ModeUnderscore))
	})
}

func TestExtractPrefix(t *testing.T) {
	t.Run("thirteen alphanumeric characters", func(t *testing.T) {
		assert.Equal(t, "ABCDEFGHIJKLM", Extract("ABCDEFGHIJKLMxyz.png", ModePrefix))
	})

	t.Run("exact length name", func(t *testing.T) {
		assert.Equal(t, "251OM0M43B00X", Extract("251OM0M43B00X.jpg", ModePrefix))
	})

	t.Run("short name falls back to whole stem", func(t *testing.T) {
		assert.Equal(t, "short", Extract("short.jpg", ModePrefix))
	})

	t.Run("non-alphanumeric prefix falls back to whole stem", func(t *testing.T) {
		assert.Equal(t, "AB-CD EF GH IJK", Extract("AB-CD EF GH IJK.jpg", ModePrefix))
	})
}
