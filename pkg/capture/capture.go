// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture records the frames an IPMI client exchanges to a CBOR
// stream and reads them back for offline inspection.
//
// A capture file is a plain sequence of CBOR maps, one per frame, with
// integer keys:
//
//	1: time (RFC 3339 string, nanosecond precision)
//	2: direction (0 TX, 1 RX, 2 DROP)
//	3: correlation byte (sequence<<2 | LUN)
//	4: raw frame as it appeared on the line, delimiters and escapes included
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Thermoquad/ipmiserial/pkg/basicmode"
	"github.com/Thermoquad/ipmiserial/pkg/ipmi"
	"github.com/fxamacker/cbor/v2"
)

// Record is one captured frame
type Record struct {
	Time  time.Time      `cbor:"1,keyasint"`
	Dir   ipmi.Direction `cbor:"2,keyasint"`
	Seq   uint8          `cbor:"3,keyasint"`
	Frame []byte         `cbor:"4,keyasint"`
}

// Sequence returns the 6-bit sequence number carried in the correlation byte
func (r *Record) Sequence() uint8 {
	return r.Seq >> 2
}

var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Writer appends records to a stream. It implements ipmi.FrameSink, so it
// can be handed to ipmi.WithFrameSink directly. Encoding errors are sticky:
// the first one stops further writes and is reported by Err and Close.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	enc   *cbor.Encoder
	err   error
	count int
	now   func() time.Time
}

// NewWriter returns a Writer encoding to w
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   w,
		enc: encMode.NewEncoder(w),
		now: time.Now,
	}
}

// Create creates (or truncates) the named file and returns a Writer for it.
// Close the Writer to close the file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file %s: %w", path, err)
	}
	return NewWriter(f), nil
}

// Frame records one frame
func (w *Writer) Frame(dir ipmi.Direction, seq uint8, frame []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}

	rec := Record{
		Time:  w.now(),
		Dir:   dir,
		Seq:   seq,
		Frame: frame,
	}
	if err := w.enc.Encode(&rec); err != nil {
		w.err = fmt.Errorf("failed to write capture record: %w", err)
		return
	}
	w.count++
}

// Count returns the number of records written
func (w *Writer) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Err returns the first write error, if any
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Close closes the underlying stream when it is an io.Closer
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var closeErr error
	if c, ok := w.w.(io.Closer); ok {
		closeErr = c.Close()
	}
	return errors.Join(w.err, closeErr)
}

// Reader iterates the records of a capture stream
type Reader struct {
	dec *cbor.Decoder
}

// NewReader returns a Reader decoding from r
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at the end of the stream
func (r *Reader) Next() (*Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode capture record: %w", err)
	}
	return &rec, nil
}

// ReadAll reads every record from r
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var records []Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, *rec)
	}
}

// FormatRecord renders a record with its direction and decoded frame
func FormatRecord(rec *Record) string {
	return fmt.Sprintf("%-4s %s", rec.Dir, basicmode.FormatFrame(rec.Time, basicmode.Unwrap(rec.Frame)))
}
