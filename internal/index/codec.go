package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Vector file layout: 4-byte magic, uint16 version, uint32 dim, uint32 count,
// then count*dim little-endian float32 values.
const (
	vectorsMagic   = "DQIX"
	vectorsVersion = 1
	headerSize     = 4 + 2 + 4 + 4
)

func writeVectors(path string, dim int, vecs []float32) error {
	count := 0
	if dim > 0 {
		count = len(vecs) / dim
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	header := make([]byte, headerSize)
	copy(header, vectorsMagic)
	binary.LittleEndian.PutUint16(header[4:], vectorsVersion)
	binary.LittleEndian.PutUint32(header[6:], uint32(dim))
	binary.LittleEndian.PutUint32(header[10:], uint32(count))
	if _, err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}

	buf := make([]byte, 4)
	for _, v := range vecs {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := w.Write(buf); err != nil {
			f.Close()
			return fmt.Errorf("write vector data: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

func readVectors(path string) (int, []float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return 0, nil, fmt.Errorf("read header: %w", err)
	}
	if string(header[:4]) != vectorsMagic {
		return 0, nil, fmt.Errorf("bad magic %q", header[:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:]); v != vectorsVersion {
		return 0, nil, fmt.Errorf("unsupported version %d", v)
	}
	dim := int(binary.LittleEndian.Uint32(header[6:]))
	count := int(binary.LittleEndian.Uint32(header[10:]))

	// The header is untrusted input: check dim*count against the actual
	// file size before allocating, so a corrupt header cannot ask for a
	// huge (or int-overflowing) slice.
	info, err := f.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	payload := info.Size() - headerSize
	if payload < 0 || payload%4 != 0 {
		return 0, nil, fmt.Errorf("payload of %d bytes is not a whole float32 run", payload)
	}
	if uint64(dim)*uint64(count) != uint64(payload/4) {
		return 0, nil, fmt.Errorf("header claims %dx%d values, file holds %d", dim, count, payload/4)
	}

	vecs := make([]float32, dim*count)
	buf := make([]byte, 4)
	for i := range vecs {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, nil, fmt.Errorf("truncated vector data at value %d: %w", i, err)
		}
		vecs[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}
	if _, err := r.ReadByte(); err != io.EOF {
		return 0, nil, fmt.Errorf("trailing bytes after %d values", len(vecs))
	}
	return dim, vecs, nil
}
