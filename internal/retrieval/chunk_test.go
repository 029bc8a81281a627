// ABOUTME: Tests for corpus document chunking
// ABOUTME: Verifies paragraph and sentence group splitting
package retrieval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/retail-nlp/internal/models"
)

func TestChunkDocument_ShortPassesThrough(t *testing.T) {
	d := models.Document{ID: "kpi-sales", Collection: "kpi_definitions", Text: "Sales is the number of transactions."}
	out := ChunkDocument(d, MaxPassageChars)
	require.Len(t, out, 1)
	assert.Equal(t, d, out[0])
}

func TestChunkDocument_Paragraphs(t *testing.T) {
	d := models.Document{
		ID:         "rules",
		Collection: "business_rules",
		Text:       "Refunds need a receipt.\n\nVoids above 100 EUR need a manager.\r\n\r\nGift cards are final sale.",
		Metadata:   map[string]string{"source": "handbook"},
	}

	out := ChunkDocument(d, MaxPassageChars)
	require.Len(t, out, 3)
	for i, p := range out {
		assert.Equal(t, "business_rules", p.Collection)
		assert.Equal(t, "rules", p.Metadata["parent"])
		assert.Equal(t, "handbook", p.Metadata["source"])
		assert.Equal(t, "rules#"+string(rune('1'+i)), p.ID)
	}
	assert.Equal(t, "Voids above 100 EUR need a manager.", out[1].Text)
	assert.NotContains(t, d.Metadata, "parent")
}

func TestChunkDocument_LongParagraphGroupsSentences(t *testing.T) {
	sentence := strings.Repeat("word ", 8) + "end"
	text := strings.Join([]string{sentence, sentence, sentence, sentence}, ". ") + "."

	out := ChunkDocument(models.Document{ID: "long", Collection: "ops", Text: text}, 100)
	require.Len(t, out, 2)
	for _, p := range out {
		assert.LessOrEqual(t, len(p.Text), 100)
		assert.True(t, strings.HasSuffix(p.Text, "."), p.Text)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First sentence here. Second sentence follows. Third one too.")
	assert.Equal(t, []string{"First sentence here.", "Second sentence follows.", "Third one too."}, got)
	assert.Empty(t, splitSentences("   "))
}

func TestLoadDocuments_ChunksLongDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	content := "- id: handbook\n  collection: business_rules\n  text: \"Refunds need a receipt.\\n\\nVoids need a manager.\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	docs, err := LoadDocuments(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "handbook#1", docs[0].ID)
	assert.Equal(t, "Voids need a manager.", docs[1].Text)

	_, err = LoadDocuments(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
