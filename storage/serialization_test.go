package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiwa-codes/scripture-sync/core"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.VerseID("KJV", "John", 3, 16)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalVerse(t *testing.T) {
	tests := []struct {
		name  string
		verse *core.Verse
	}{
		{
			name: "verse without vector",
			verse: &core.Verse{
				Id:          core.VerseID("KJV", "John", 3, 16),
				Translation: "KJV",
				Book:        "John",
				Chapter:     3,
				VerseNum:    16,
				Text:        "For God so loved the world, that he gave his only begotten Son, that whosoever believeth in him should not perish, but have everlasting life.",
			},
		},
		{
			name: "verse with vector",
			verse: &core.Verse{
				Id:          core.VerseID("NIV", "Genesis", 1, 1),
				Translation: "NIV",
				Book:        "Genesis",
				Chapter:     1,
				VerseNum:    1,
				Text:        "In the beginning God created the heavens and the earth.",
				Vector:      []float32{0.1, -0.2, 0.3, 0.4, -0.5},
			},
		},
		{
			name: "numbered book",
			verse: &core.Verse{
				Id:          core.VerseID("KJV", "1 John", 4, 8),
				Translation: "KJV",
				Book:        "1 John",
				Chapter:     4,
				VerseNum:    8,
				Text:        "He that loveth not knoweth not God; for God is love.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalVerse(tt.verse)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalVerse(data)
			require.NoError(t, err)
			require.NotNil(t, decoded)

			assert.Equal(t, tt.verse.Id, decoded.Id)
			assert.Equal(t, tt.verse.Translation, decoded.Translation)
			assert.Equal(t, tt.verse.Book, decoded.Book)
			assert.Equal(t, tt.verse.Chapter, decoded.Chapter)
			assert.Equal(t, tt.verse.VerseNum, decoded.VerseNum)
			assert.Equal(t, tt.verse.Text, decoded.Text)
			// Handle nil vs empty slice
			if len(tt.verse.Vector) == 0 {
				assert.Empty(t, decoded.Vector)
			} else {
				assert.Equal(t, tt.verse.Vector, decoded.Vector)
			}
		})
	}
}

func TestUnmarshalVerse_Truncated(t *testing.T) {
	verse := &core.Verse{
		Id:          core.VerseID("KJV", "Psalms", 23, 1),
		Translation: "KJV",
		Book:        "Psalms",
		Chapter:     23,
		VerseNum:    1,
		Text:        "The LORD is my shepherd; I shall not want.",
	}
	data := MarshalVerse(verse)

	_, err := UnmarshalVerse(data[:len(data)/2])
	assert.Error(t, err)
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	checkpoint := &core.Checkpoint{
		ProcessorType: "verse-embedding",
		LastId:        core.ID(1234),
		Processed:     500,
		UpdatedAt:     now,
	}

	data := MarshalCheckpoint(checkpoint)
	require.NotEmpty(t, data)

	decoded, err := UnmarshalCheckpoint(data)
	require.NoError(t, err)
	assert.Equal(t, checkpoint.ProcessorType, decoded.ProcessorType)
	assert.Equal(t, checkpoint.LastId, decoded.LastId)
	assert.Equal(t, checkpoint.Processed, decoded.Processed)
	assert.True(t, checkpoint.UpdatedAt.Equal(decoded.UpdatedAt))
}
