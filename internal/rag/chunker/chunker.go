// Package chunker splits document text into overlapping character windows
// suitable for embedding and similarity search.
package chunker

// Chunk is a bounded slice of a document's text, the unit stored and retrieved.
type Chunk struct {
	Content  string
	Index    int
	Metadata map[string]string
}

// Default window parameters.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// separators tried in order of preference when looking for a break point
// inside a window.
var separators = []string{"\n\n", "\n", " "}

// Splitter produces chunks of at most chunkSize runes, with consecutive
// chunks sharing exactly overlap runes. Splitting is a pure character-window
// slice: concatenating the chunks with the shared overlap removed
// reconstructs the original text.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a Splitter. Non-positive chunkSize falls back to
// DefaultChunkSize; an overlap that is negative or not smaller than the
// chunk size is clamped.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// ChunkSize returns the maximum chunk length in runes.
func (s *Splitter) ChunkSize() int { return s.chunkSize }

// Overlap returns the number of runes shared between consecutive chunks.
func (s *Splitter) Overlap() int { return s.overlap }

// Split returns the overlapping windows of text. Text that already fits in
// one window is returned unchanged as a single element. Empty text yields
// nil.
func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	var out []string
	start := 0
	for {
		end := start + s.chunkSize
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			return out
		}
		if cut := s.boundary(runes[start:end]); cut > 0 {
			end = start + cut
		}
		out = append(out, string(runes[start:end]))
		start = end - s.overlap
	}
}

// SplitWithMetadata splits text and attaches a copy of meta to every chunk.
func (s *Splitter) SplitWithMetadata(text string, meta map[string]string) []Chunk {
	parts := s.Split(text)
	chunks := make([]Chunk, len(parts))
	for i, p := range parts {
		chunks[i] = Chunk{
			Content:  p,
			Index:    i,
			Metadata: copyMeta(meta),
		}
	}
	return chunks
}

// boundary returns the rune offset at which to end the window so that the
// break lands just after the last separator found in it, or 0 when no
// separator allows forward progress past the overlap.
func (s *Splitter) boundary(window []rune) int {
	for _, sep := range separators {
		if i := lastIndex(window, []rune(sep)); i > s.overlap {
			return i + len([]rune(sep))
		}
	}
	return 0
}

// lastIndex returns the rune index of the last occurrence of sep in window,
// or -1 when absent.
func lastIndex(window, sep []rune) int {
	for i := len(window) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if window[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func copyMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
