package domain

// Document describes one ingested PDF file.
type Document struct {
	ID    string // uuid assigned at ingestion
	Name  string // file name, the citation target
	Path  string
	Pages int
}

// Segment is the unit of embedding and retrieval: one contiguous piece of
// page text together with its provenance.
type Segment struct {
	Document string // source file name
	Page     int    // 1-based
	Ordinal  int    // insertion position in the index
	Text     string
}

// ScoredSegment is a search hit. Distance is squared L2, smaller is closer.
type ScoredSegment struct {
	Segment
	Distance float32
}
