package store

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	resultFixedLen = 8 + 4 + 8 + 8 + 1
	maxStrategyLen = 255
)

// Result is one timed sort run.
type Result struct {
	NumElements int
	// NumWorkers is the requested worker count clamped to [1, NumElements].
	NumWorkers int
	Strategy   string
	Elapsed    time.Duration
	Timestamp  time.Time
}

// Key orders results by the time they were taken.
func (r *Result) Key() string {
	return fmt.Sprintf("%020d/%d/%d", r.Timestamp.UnixNano(), r.NumElements, r.NumWorkers)
}

// CSV returns the num_elements,num_threads,elapsed_ms line printed by the benchmark driver.
func (r *Result) CSV() string {
	return fmt.Sprintf("%d,%d,%d", r.NumElements, r.NumWorkers, r.Elapsed.Milliseconds())
}

func (r *Result) MarshalBinary() ([]byte, error) {
	if len(r.Strategy) > maxStrategyLen {
		return nil, fmt.Errorf("strategy name of %d bytes exceeds %d", len(r.Strategy), maxStrategyLen)
	}
	b := make([]byte, resultFixedLen+len(r.Strategy))
	p := 0
	binary.BigEndian.PutUint64(b[p:p+8], uint64(r.NumElements))
	p += 8
	binary.BigEndian.PutUint32(b[p:p+4], uint32(r.NumWorkers))
	p += 4
	binary.BigEndian.PutUint64(b[p:p+8], uint64(r.Elapsed))
	p += 8
	binary.BigEndian.PutUint64(b[p:p+8], uint64(r.Timestamp.UnixNano()))
	p += 8
	b[p] = uint8(len(r.Strategy))
	p++
	copy(b[p:], r.Strategy)

	return b, nil
}

func (r *Result) UnmarshalBinary(b []byte) error {
	if len(b) < resultFixedLen {
		return fmt.Errorf("invalid byte slice length, expected at least %d, got %d", resultFixedLen, len(b))
	}
	m := &Result{}
	p := 0
	m.NumElements = int(binary.BigEndian.Uint64(b[p : p+8]))
	p += 8
	m.NumWorkers = int(binary.BigEndian.Uint32(b[p : p+4]))
	p += 4
	m.Elapsed = time.Duration(binary.BigEndian.Uint64(b[p : p+8]))
	p += 8
	m.Timestamp = time.Unix(0, int64(binary.BigEndian.Uint64(b[p:p+8]))).UTC()
	p += 8
	l := int(b[p])
	p++
	if len(b) != p+l {
		return fmt.Errorf("invalid byte slice length, expected %d, got %d", p+l, len(b))
	}
	m.Strategy = string(b[p : p+l])

	*r = *m

	return nil
}
