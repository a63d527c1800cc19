package store

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Persisted layout: two artifacts in the configured directory, written
// together after every successful Add and read together at construction.
//
//   - index artifact: little-endian binary; magic, version, dimension,
//     count, then count*dimension float32 values in slot order
//   - metadata artifact: gob blob holding the record list and the
//     id->slot map
//
// Writes go to a temp file in the same directory and are renamed into
// place, so a crash mid-write leaves the previous pair readable. There is
// no cross-version compatibility guarantee beyond best-effort reload: a
// blob that fails to decode simply yields a fresh store.

const (
	indexMagic   uint32 = 0x4c4c4958 // "LLIX"
	indexVersion uint32 = 1
)

// metadataBlob is the gob-encoded companion to the vector index.
type metadataBlob struct {
	Records  []AnalysisRecord
	IDToSlot map[string]int
}

func (s *Store) initPaths(cfg Config) error {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	s.indexPath = filepath.Join(cfg.Dir, cfg.IndexFile)
	s.metaPath = filepath.Join(cfg.Dir, cfg.MetadataFile)
	return nil
}

// saveLocked writes both artifacts. Callers hold s.mu.
func (s *Store) saveLocked() error {
	if err := writeAtomic(s.indexPath, s.writeIndex); err != nil {
		return &PersistenceError{Op: "save", Path: s.indexPath, Err: err}
	}
	if err := writeAtomic(s.metaPath, s.writeMetadata); err != nil {
		return &PersistenceError{Op: "save", Path: s.metaPath, Err: err}
	}
	return nil
}

// load reads both artifacts into s. Missing files are not an error: the
// store simply starts empty. Any decode failure or dimension/count mismatch
// is returned so the constructor can fall back to a fresh store.
func (s *Store) load() error {
	if _, err := os.Stat(s.indexPath); os.IsNotExist(err) {
		return nil
	}
	if _, err := os.Stat(s.metaPath); os.IsNotExist(err) {
		return nil
	}

	idx, err := s.readIndex()
	if err != nil {
		return &PersistenceError{Op: "load", Path: s.indexPath, Err: err}
	}

	blob, err := s.readMetadata()
	if err != nil {
		return &PersistenceError{Op: "load", Path: s.metaPath, Err: err}
	}

	if idx.Count() != len(blob.Records) {
		return &PersistenceError{
			Op:   "load",
			Path: s.metaPath,
			Err:  fmt.Errorf("index holds %d vectors but metadata holds %d records", idx.Count(), len(blob.Records)),
		}
	}

	s.index = idx
	s.records = blob.Records
	s.idToSlot = blob.IDToSlot
	if s.idToSlot == nil {
		s.idToSlot = make(map[string]int)
	}
	return nil
}

func (s *Store) writeIndex(w io.Writer) error {
	bw := bufio.NewWriter(w)
	header := []uint32{indexMagic, indexVersion, uint32(s.index.dim), uint32(s.index.Count())}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	for _, vec := range s.index.vectors {
		if err := binary.Write(bw, binary.LittleEndian, vec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func (s *Store) readIndex() (*FlatIndex, error) {
	f, err := os.Open(s.indexPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	br := bufio.NewReader(f)

	var magic, version, dim, count uint32
	for _, p := range []*uint32{&magic, &version, &dim, &count} {
		if err := binary.Read(br, binary.LittleEndian, p); err != nil {
			return nil, err
		}
	}
	if magic != indexMagic {
		return nil, fmt.Errorf("bad index magic %#x", magic)
	}
	if version != indexVersion {
		return nil, fmt.Errorf("unsupported index version %d", version)
	}
	if int(dim) != s.embedder.Dimensions() {
		return nil, fmt.Errorf("index dimension %d does not match embedder dimension %d", dim, s.embedder.Dimensions())
	}

	idx := NewFlatIndex(int(dim))
	for i := uint32(0); i < count; i++ {
		vec := make([]float32, dim)
		if err := binary.Read(br, binary.LittleEndian, vec); err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		idx.vectors = append(idx.vectors, vec)
	}
	return idx, nil
}

func (s *Store) writeMetadata(w io.Writer) error {
	return gob.NewEncoder(w).Encode(metadataBlob{
		Records:  s.records,
		IDToSlot: s.idToSlot,
	})
}

func (s *Store) readMetadata() (*metadataBlob, error) {
	f, err := os.Open(s.metaPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var blob metadataBlob
	if err := gob.NewDecoder(f).Decode(&blob); err != nil {
		return nil, err
	}
	return &blob, nil
}

// writeAtomic writes via a temp file in the target directory and renames it
// into place.
func writeAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
