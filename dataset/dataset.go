// Package dataset generates and stores int32 sequences used as sort input.
//
// A dataset file is a series of records. Each record is a 4 byte big endian element count
// followed by that many 4 byte big endian int32 values.
package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/golang/glog"
)

const (
	// MaxRecordElements is the largest number of elements Write puts in a single record.
	MaxRecordElements = 1 << 16
	recordHeaderLen   = 4
	elementLen        = 4
)

var (
	// ErrTruncatedRecord is returned when a record ends before its declared length.
	ErrTruncatedRecord = errors.New("truncated dataset record")
	// ErrRecordTooLarge is returned for a record header above MaxRecordElements.
	ErrRecordTooLarge = errors.New("dataset record too large")
)

// Generate returns n pseudo-random int32 values. A zero seed picks a time based one.
func Generate(n int, seed int64) []int32 {
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	data := make([]int32, n)
	for i := range data {
		data[i] = int32(r.Uint32())
	}

	return data
}

// Write encodes data to w as records of at most MaxRecordElements elements.
func Write(w io.Writer, data []int32) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	b := make([]byte, recordHeaderLen+MaxRecordElements*elementLen)
	for len(data) > 0 {
		n := min(len(data), MaxRecordElements)
		binary.BigEndian.PutUint32(b[:recordHeaderLen], uint32(n))
		p := recordHeaderLen
		for _, v := range data[:n] {
			binary.BigEndian.PutUint32(b[p:p+elementLen], uint32(v))
			p += elementLen
		}
		if _, err := bw.Write(b[:p]); err != nil {
			return err
		}
		data = data[n:]
	}

	return bw.Flush()
}

// Read decodes records from r until EOF and returns their concatenated elements.
func Read(r io.Reader) ([]int32, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	data := make([]int32, 0)
	lb := make([]byte, recordHeaderLen)
	b := make([]byte, MaxRecordElements*elementLen)
	for record := 0; ; record++ {
		if _, err := io.ReadFull(br, lb); err != nil {
			if err == io.EOF {
				return data, nil
			}
			if err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: record %d header", ErrTruncatedRecord, record)
			}
			return nil, err
		}
		n := int(binary.BigEndian.Uint32(lb))
		if n > MaxRecordElements {
			return nil, fmt.Errorf("%w: record %d declares %d elements", ErrRecordTooLarge, record, n)
		}
		glog.V(6).Infof("dataset record %d holds %d elements", record, n)
		if _, err := io.ReadFull(br, b[:n*elementLen]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, fmt.Errorf("%w: record %d expected %d elements", ErrTruncatedRecord, record, n)
			}
			return nil, err
		}
		for p := 0; p < n*elementLen; p += elementLen {
			data = append(data, int32(binary.BigEndian.Uint32(b[p:p+elementLen])))
		}
	}
}

// WriteFile writes data to the file fn, replacing it if it exists.
func WriteFile(fn string, data []int32) error {
	f, err := os.Create(fn)
	if err != nil {
		return fmt.Errorf("failed to create dataset file %s with error: %w", fn, err)
	}
	if err := Write(f, data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write dataset file %s with error: %w", fn, err)
	}

	return f.Close()
}

// ReadFile reads the dataset stored in fn.
func ReadFile(fn string) ([]int32, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file %s with error: %w", fn, err)
	}
	defer f.Close()
	data, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file %s with error: %w", fn, err)
	}
	glog.Infof("loaded %d elements from %s", len(data), fn)

	return data, nil
}
