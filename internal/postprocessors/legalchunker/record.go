package legalchunker

// Record is the serialised form of a chunk.
type Record struct {
	Text       string         `json:"text"`
	StartChar  int            `json:"start_char"`
	EndChar    int            `json:"end_char"`
	ChunkIndex int            `json:"chunk_index"`
	Metadata   RecordMetadata `json:"metadata"`
}

// RecordMetadata describes a serialised chunk.
type RecordMetadata struct {
	ChunkType      string   `json:"chunk_type"`
	ArticleCount   int      `json:"article_count"`
	ArticleNumbers []string `json:"article_numbers"`
	FirstArticle   string   `json:"first_article,omitempty"`
	LastArticle    string   `json:"last_article,omitempty"`
}

// Record returns the serialised form of the chunk.
// ArticleNumbers is never nil so it encodes as [].
func (c Chunk) Record() Record {
	numbers := []string{}
	kind := ""
	if c.Meta != nil {
		kind = string(c.Meta.Kind())
		if n := c.Meta.ArticleNumbers(); len(n) > 0 {
			numbers = n
		}
	}
	r := Record{
		Text:       c.Text,
		StartChar:  c.StartChar,
		EndChar:    c.EndChar,
		ChunkIndex: c.Index,
		Metadata: RecordMetadata{
			ChunkType:      kind,
			ArticleCount:   len(numbers),
			ArticleNumbers: numbers,
		},
	}
	if len(numbers) > 0 {
		r.Metadata.FirstArticle = numbers[0]
		r.Metadata.LastArticle = numbers[len(numbers)-1]
	}
	return r
}

// Records converts chunks to their serialised form.
func Records(chunks []Chunk) []Record {
	out := make([]Record, len(chunks))
	for i, c := range chunks {
		out[i] = c.Record()
	}
	return out
}
