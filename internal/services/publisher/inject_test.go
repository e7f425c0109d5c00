package publisher

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChunkText_CoversInput(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	chunks := ChunkText(text, 7)

	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 7)
	}
}

func TestChunkText_MultibyteRuneSafe(t *testing.T) {
	// Splitting mid-rune would corrupt the injected text
	text := "こんにちは世界、本日は晴天なり"
	chunks := ChunkText(text, 4)

	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len([]rune(chunk)), 4)
		assert.True(t, strings.ContainsAny(chunk, text))
	}
}

func TestChunkText_Empty(t *testing.T) {
	assert.Nil(t, ChunkText("", 10))
}

func TestChunkText_SizeLargerThanInput(t *testing.T) {
	chunks := ChunkText("short", 100)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestChunkText_NonPositiveSize(t *testing.T) {
	chunks := ChunkText("ab", 0)
	assert.Equal(t, []string{"a", "b"}, chunks)
}

func TestPacingDelay_WithinBounds(t *testing.T) {
	min := 80 * time.Millisecond
	max := 260 * time.Millisecond

	for i := 0; i < 100; i++ {
		d := pacingDelay(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.LessOrEqual(t, d, max)
	}
}

func TestPacingDelay_DegenerateRange(t *testing.T) {
	d := pacingDelay(100*time.Millisecond, 100*time.Millisecond)
	assert.Equal(t, 100*time.Millisecond, d)
}
