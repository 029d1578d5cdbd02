package pagefile

import "sync/atomic"

// Stats counts page accesses. Deletes count as write operations.
type Stats struct {
	reads  atomic.Int64
	writes atomic.Int64
}

// ReadOperations returns the number of page reads so far.
func (s *Stats) ReadOperations() int64 {
	return s.reads.Load()
}

// WriteOperations returns the number of page writes and deletes so far.
func (s *Stats) WriteOperations() int64 {
	return s.writes.Load()
}
