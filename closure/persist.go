package closure

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring"
	"github.com/wardle/snomed-terminology/snomed"
	"go.etcd.io/bbolt"
)

var closureBucket = []byte("closure")

// DiskCache persists a built Closure to a bbolt database, one key per
// {releaseDate, sourceHashes} tag, matching spec §6's optional persisted
// state: "a key-value mapping ... tagged with {releaseDate, sourceHashes}.
// Mismatch between on-disk tag and current input → rebuild." The tag itself
// IS the key, so a mismatch simply manifests as Load reporting no entry.
type DiskCache struct {
	db *bbolt.DB
}

// OpenDiskCache opens (creating if necessary) a bbolt database at path for
// closure persistence.
func OpenDiskCache(path string) (*DiskCache, error) {
	db, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(closureBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DiskCache{db: db}, nil
}

// Close releases the underlying database handle.
func (d *DiskCache) Close() error { return d.db.Close() }

// Tag derives the cache key for a release date plus the hashes of the source
// files that fed the store this closure was built from.
func Tag(releaseDate string, sourceHashes []string) string {
	h := sha256.New()
	h.Write([]byte(releaseDate))
	for _, s := range sourceHashes {
		h.Write([]byte{0})
		h.Write([]byte(s))
	}
	return releaseDate + "-" + fmt.Sprintf("%x", h.Sum(nil))[:16]
}

// Store serializes c under tag. The on-disk format is a small self-describing
// binary frame: node count, the dense-index->id table, then each node's
// descendant and ancestor bitmaps in the roaring portable format.
func (d *DiskCache) Store(tag string, c *Closure) error {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.BigEndian, uint32(len(c.indexToID))); err != nil {
		return err
	}
	for _, id := range c.indexToID {
		if err := binary.Write(&buf, binary.BigEndian, uint64(id)); err != nil {
			return err
		}
	}
	for _, bm := range c.descendants {
		if err := writeBitmap(&buf, bm); err != nil {
			return err
		}
	}
	for _, bm := range c.ancestors {
		if err := writeBitmap(&buf, bm); err != nil {
			return err
		}
	}
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(closureBucket).Put([]byte(tag), buf.Bytes())
	})
}

func writeBitmap(w io.Writer, bm *roaring.Bitmap) error {
	var inner bytes.Buffer
	if _, err := bm.WriteTo(&inner); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(inner.Len())); err != nil {
		return err
	}
	_, err := w.Write(inner.Bytes())
	return err
}

// Load reads a previously stored Closure for tag. found is false (with a nil
// error) if no entry exists under that exact tag — the caller should treat
// this identically to a tag mismatch and rebuild.
func (d *DiskCache) Load(tag string) (c *Closure, found bool, err error) {
	var raw []byte
	err = d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(closureBucket).Get([]byte(tag))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false, err
	}
	r := bytes.NewReader(raw)
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, false, err
	}
	indexToID := make([]snomed.Identifier, count)
	idToIndex := make(map[snomed.Identifier]uint32, count)
	for i := range indexToID {
		var raw64 uint64
		if err := binary.Read(r, binary.BigEndian, &raw64); err != nil {
			return nil, false, err
		}
		indexToID[i] = snomed.Identifier(raw64)
		idToIndex[indexToID[i]] = uint32(i)
	}
	descendants := make([]*roaring.Bitmap, count)
	for i := range descendants {
		bm, err := readBitmap(r)
		if err != nil {
			return nil, false, err
		}
		descendants[i] = bm
	}
	ancestors := make([]*roaring.Bitmap, count)
	for i := range ancestors {
		bm, err := readBitmap(r)
		if err != nil {
			return nil, false, err
		}
		ancestors[i] = bm
	}
	return &Closure{idToIndex: idToIndex, indexToID: indexToID, descendants: descendants, ancestors: ancestors}, true, nil
}

func readBitmap(r io.Reader) (*roaring.Bitmap, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return bm, nil
}
