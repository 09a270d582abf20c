package domain

import "errors"

var (
	// ErrIngestion signals a document that could not be read or split.
	ErrIngestion = errors.New("document ingestion failed")
	// ErrEmbedding signals an embedding provider failure.
	ErrEmbedding = errors.New("embedding provider error")
	// ErrIndexWrite signals a rejected or failed index mutation.
	ErrIndexWrite = errors.New("index write failed")
	// ErrIndexLoad signals missing or inconsistent index artifacts on disk.
	ErrIndexLoad = errors.New("index load failed")
	// ErrIndexQuery signals an unservable search, including an empty index.
	ErrIndexQuery = errors.New("index query failed")
	// ErrGeneration signals a language model failure, at open or mid-stream.
	ErrGeneration = errors.New("generation provider error")
	// ErrConfiguration signals invalid or incomplete startup configuration.
	ErrConfiguration = errors.New("invalid configuration")
)
