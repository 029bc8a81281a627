// ABOUTME: Knowledge corpus documents and retrieved passages
// ABOUTME: Documents are embedded offline; passages are ranked query results
package models

// Document is one entry of the knowledge corpus
type Document struct {
	ID         string            `json:"id" yaml:"id"`
	Collection string            `json:"collection" yaml:"collection"`
	Text       string            `json:"text" yaml:"text"`
	Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IndexEntry is a document with its precomputed embedding
type IndexEntry struct {
	Document
	Vector []float64 `json:"vector"`
}

// RetrievedPassage is a ranked retrieval hit
type RetrievedPassage struct {
	DocumentID string  `json:"document_id"`
	Collection string  `json:"collection"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// Collections returns the distinct collection names in first-appearance order
func Collections(passages []RetrievedPassage) []string {
	seen := make(map[string]bool, len(passages))
	out := []string{}
	for _, p := range passages {
		if p.Collection == "" || seen[p.Collection] {
			continue
		}
		seen[p.Collection] = true
		out = append(out, p.Collection)
	}
	return out
}
