package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sentences applies the detector and returns the detected sentence texts
func sentences(t *testing.T, text string) []string {
	t.Helper()
	detector := NewRuleDetector()
	spans := detector.Detect(text)

	out := make([]string, 0, len(spans))
	for _, span := range spans {
		out = append(out, text[span.Start:span.End])
	}
	return out
}

func TestRuleDetector(t *testing.T) {
	t.Run("should split text into sentences at terminators", func(t *testing.T) {
		// Act
		result := sentences(t, "Hello there. How are you? I am fine!")

		// Assert
		assert.Equal(t, []string{"Hello there.", "How are you?", "I am fine!"}, result)
	})

	t.Run("should treat text without terminators as one sentence", func(t *testing.T) {
		// Act
		result := sentences(t, "no punctuation at all")

		// Assert
		assert.Equal(t, []string{"no punctuation at all"}, result)
	})

	t.Run("should not split before a lowercase continuation", func(t *testing.T) {
		// Act
		result := sentences(t, "This is it. and it keeps going")

		// Assert
		assert.Equal(t, []string{"This is it. and it keeps going"}, result)
	})

	t.Run("should split before a sentence starting with a digit", func(t *testing.T) {
		// Act
		result := sentences(t, "It ended in 1999. 2000 came next.")

		// Assert
		assert.Equal(t, []string{"It ended in 1999.", "2000 came next."}, result)
	})

	t.Run("should keep closing quotes with the sentence", func(t *testing.T) {
		// Act
		result := sentences(t, `He shouted "stop!" Then he left.`)

		// Assert
		assert.Equal(t, []string{`He shouted "stop!"`, "Then he left."}, result)
	})

	t.Run("should not split inside a token such as a domain name", func(t *testing.T) {
		// Act
		result := sentences(t, "Visit example.com for more.")

		// Assert
		assert.Equal(t, []string{"Visit example.com for more."}, result)
	})

	t.Run("should not split after a known abbreviation", func(t *testing.T) {
		// Act
		result := sentences(t, "Mr. Smith went home.")

		// Assert
		assert.Equal(t, []string{"Mr. Smith went home."}, result)
	})

	t.Run("should not split inside an initialism", func(t *testing.T) {
		// Act
		result := sentences(t, "He lives in the U.K. Nobody minds.")

		// Assert
		assert.Equal(t, []string{"He lives in the U.K. Nobody minds."}, result)
	})

	t.Run("should split after an ellipsis followed by an uppercase start", func(t *testing.T) {
		// Act
		result := sentences(t, "Wait... Is that you?")

		// Assert
		assert.Equal(t, []string{"Wait...", "Is that you?"}, result)
	})

	t.Run("should split before a sentence starting with an ellipsis", func(t *testing.T) {
		// Act
		result := sentences(t, "He stopped. ...Then silence.")

		// Assert
		assert.Equal(t, []string{"He stopped.", "...Then silence."}, result)
	})

	t.Run("should not split before a quoted lowercase continuation", func(t *testing.T) {
		// Act
		result := sentences(t, `It was in 2010... "...it won't be with me."`)

		// Assert
		assert.Equal(t, []string{`It was in 2010... "...it won't be with me."`}, result)
	})

	t.Run("should split before a quoted uppercase start", func(t *testing.T) {
		// Act
		result := sentences(t, `Leave me! "What do you want?"`)

		// Assert
		assert.Equal(t, []string{"Leave me!", `"What do you want?"`}, result)
	})

	t.Run("should handle the horizontal ellipsis rune", func(t *testing.T) {
		// Act
		result := sentences(t, "Wait… Stop!")

		// Assert
		assert.Equal(t, []string{"Wait…", "Stop!"}, result)
	})

	t.Run("should exclude surrounding whitespace from spans", func(t *testing.T) {
		// Arrange
		text := "  Hello there.  "

		// Act
		detector := NewRuleDetector()
		spans := detector.Detect(text)

		// Assert
		require.Len(t, spans, 1)
		assert.Equal(t, "Hello there.", text[spans[0].Start:spans[0].End])
	})

	t.Run("should report byte offsets for multibyte text", func(t *testing.T) {
		// Arrange
		text := "Привет. Как дела?"

		// Act
		detector := NewRuleDetector()
		spans := detector.Detect(text)

		// Assert
		require.Len(t, spans, 2)
		assert.Equal(t, "Привет.", text[spans[0].Start:spans[0].End])
		assert.Equal(t, "Как дела?", text[spans[1].Start:spans[1].End])
	})

	t.Run("should detect nothing in empty or blank text", func(t *testing.T) {
		// Act & Assert
		assert.Empty(t, sentences(t, ""))
		assert.Empty(t, sentences(t, "   "))
	})
}
