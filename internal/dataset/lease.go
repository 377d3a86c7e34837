package dataset

// Lease is an exclusive read token. While any lease on a data set is held,
// every mutating operation on it fails with ErrLocked.
type Lease struct {
	ds       *DataSet
	released bool
}

// Acquire takes a lease. Leases nest; each must be released.
func (ds *DataSet) Acquire() *Lease {
	ds.leases++
	return &Lease{ds: ds}
}

// Release gives the lease back. Releasing twice is a no-op.
func (l *Lease) Release() {
	if l.released {
		return
	}
	l.released = true
	l.ds.leases--
}

// Locked reports whether a lease is held.
func (ds *DataSet) Locked() bool { return ds.leases > 0 }
