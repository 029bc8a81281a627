// ABOUTME: Splits long corpus documents into passages before embedding
// ABOUTME: Document -> paragraph -> sentence group hierarchy
package retrieval

import (
	"fmt"
	"strings"

	"github.com/harper/retail-nlp/internal/models"
)

// MaxPassageChars bounds the text of a single embedded passage
const MaxPassageChars = 800

// ChunkDocuments splits every document into passages of at most maxChars.
// Short single-paragraph documents pass through unchanged.
func ChunkDocuments(docs []models.Document, maxChars int) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, ChunkDocument(doc, maxChars)...)
	}
	return out
}

// ChunkDocument splits a document by paragraph, then groups sentences of
// oversized paragraphs. Passages keep the collection and record their parent.
func ChunkDocument(doc models.Document, maxChars int) []models.Document {
	paragraphs := splitParagraphs(doc.Text)
	if len(paragraphs) <= 1 && len(doc.Text) <= maxChars {
		return []models.Document{doc}
	}

	var texts []string
	for _, para := range paragraphs {
		if len(para) <= maxChars {
			texts = append(texts, para)
			continue
		}
		texts = append(texts, groupSentences(splitSentences(para), maxChars)...)
	}

	passages := make([]models.Document, 0, len(texts))
	for i, text := range texts {
		meta := make(map[string]string, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta["parent"] = doc.ID
		passages = append(passages, models.Document{
			ID:         fmt.Sprintf("%s#%d", doc.ID, i+1),
			Collection: doc.Collection,
			Text:       text,
			Metadata:   meta,
		})
	}
	return passages
}

// splitParagraphs splits text by blank lines, dropping empty paragraphs
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var result []string
	for _, para := range strings.Split(text, "\n\n") {
		if para = strings.TrimSpace(para); para != "" {
			result = append(result, para)
		}
	}
	return result
}

// splitSentences splits text by ". " keeping the period
func splitSentences(text string) []string {
	sentences := strings.Split(text, ". ")

	var result []string
	for i, sent := range sentences {
		sent = strings.TrimSpace(sent)
		if sent == "" {
			continue
		}
		if i < len(sentences)-1 && !strings.HasSuffix(sent, ".") {
			sent += "."
		}
		result = append(result, sent)
	}
	return result
}

// groupSentences packs consecutive sentences into passages of at most
// maxChars. A single longer sentence becomes its own passage.
func groupSentences(sentences []string, maxChars int) []string {
	var (
		groups  []string
		current strings.Builder
	)
	for _, sent := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sent) > maxChars {
			groups = append(groups, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sent)
	}
	if current.Len() > 0 {
		groups = append(groups, current.String())
	}
	return groups
}
