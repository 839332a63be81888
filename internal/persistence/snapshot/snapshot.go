package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version" cbor:"1,keyasint"`
	WorldID string `json:"world_id" cbor:"2,keyasint"`
	Seq     uint64 `json:"seq" cbor:"3,keyasint"`
	SavedAt string `json:"saved_at" cbor:"4,keyasint"`
}

type SnapshotV1 struct {
	Header Header `cbor:"1,keyasint"`

	Height    int    `cbor:"2,keyasint"`
	BoundaryR int    `cbor:"3,keyasint,omitempty"`
	Layers    []byte `cbor:"4,keyasint"`
	Spawn     [3]int `cbor:"5,keyasint"`

	CatalogDigest string `cbor:"6,keyasint"`

	Chunks  []ChunkV1  `cbor:"7,keyasint"`
	Players []PlayerV1 `cbor:"8,keyasint,omitempty"`
}

// ChunkV1 stores one 16x16 column. Blocks and Meta are run-length encoded
// (see internal/sim/encoding); Meta holds one nibble per byte.
type ChunkV1 struct {
	Dim    int8   `cbor:"1,keyasint"`
	CX     int    `cbor:"2,keyasint"`
	CZ     int    `cbor:"3,keyasint"`
	Height int    `cbor:"4,keyasint"`
	Blocks []byte `cbor:"5,keyasint"`
	Meta   []byte `cbor:"6,keyasint"`
	Digest string `cbor:"7,keyasint,omitempty"`
}

type PlayerV1 struct {
	Name   string     `cbor:"1,keyasint"`
	Pos    [3]float64 `cbor:"2,keyasint"`
	Dim    int8       `cbor:"3,keyasint"`
	Slot   int        `cbor:"4,keyasint"`
	Hotbar []ItemV1   `cbor:"5,keyasint"`
}

type ItemV1 struct {
	ID     int16 `cbor:"1,keyasint"`
	Count  int8  `cbor:"2,keyasint"`
	Damage int16 `cbor:"3,keyasint,omitempty"`
}

// WriteSnapshot writes a json header line followed by the cbor body, all
// zstd-compressed. The file is renamed into place once complete.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := writeTo(f, snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func writeTo(f *os.File, snap SnapshotV1) error {
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := cbor.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("cbor encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	var hdr Header
	if err := json.Unmarshal(line, &hdr); err != nil {
		return snap, fmt.Errorf("header: %w", err)
	}
	if hdr.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}

	if err := cbor.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("cbor decode: %w", err)
	}
	return snap, nil
}

// ReadHeader returns only the header line of a snapshot.
func ReadHeader(path string) (Header, error) {
	var hdr Header
	f, err := os.Open(path)
	if err != nil {
		return hdr, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return hdr, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return hdr, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &hdr); err != nil {
		return hdr, fmt.Errorf("header: %w", err)
	}
	return hdr, nil
}
