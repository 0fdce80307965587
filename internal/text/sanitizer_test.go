package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSoundDescriptions(t *testing.T) {
	t.Run("should mask bracketed sound descriptions", func(t *testing.T) {
		// Act
		masked := MaskSoundDescriptions("[intense music] Hello there")

		// Assert
		assert.Equal(t, "_______________ Hello there", masked)
	})

	t.Run("should mask parenthesized sound descriptions", func(t *testing.T) {
		// Act
		masked := MaskSoundDescriptions("Well (chuckles) I suppose")

		// Assert
		assert.Equal(t, "Well __________ I suppose", masked)
	})

	t.Run("should mask starred sound descriptions", func(t *testing.T) {
		// Act
		masked := MaskSoundDescriptions("*Outro Music*")

		// Assert
		assert.Equal(t, strings.Repeat("_", len("*Outro Music*")), masked)
	})

	t.Run("should mask music note descriptions", func(t *testing.T) {
		// Arrange
		input := "♪ lively music ♪ and ♫ smooth jazz ♫"

		// Act
		masked := MaskSoundDescriptions(input)

		// Assert
		assert.Equal(t, len(input), len(masked))
		assert.NotContains(t, masked, "lively")
		assert.NotContains(t, masked, "jazz")
		assert.Contains(t, masked, " and ")
	})

	t.Run("should mask several descriptions in one string", func(t *testing.T) {
		// Act
		masked := MaskSoundDescriptions("[door slams] He left. (sighs)")

		// Assert
		assert.Equal(t, "____________ He left. _______", masked)
	})

	t.Run("should preserve the input length", func(t *testing.T) {
		// Arrange
		input := "[music] regular text (noise) more text"

		// Act
		masked := MaskSoundDescriptions(input)

		// Assert
		assert.Equal(t, len(input), len(masked))
	})

	t.Run("should be idempotent", func(t *testing.T) {
		// Arrange
		input := "[music] Hello (noise)"

		// Act
		once := MaskSoundDescriptions(input)
		twice := MaskSoundDescriptions(once)

		// Assert
		assert.Equal(t, once, twice)
	})

	t.Run("should leave text without descriptions untouched", func(t *testing.T) {
		// Act
		masked := MaskSoundDescriptions("Nothing to mask here.")

		// Assert
		assert.Equal(t, "Nothing to mask here.", masked)
	})
}
