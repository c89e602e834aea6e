package engine

import "github.com/rs/xid"

// newCorrelationID generates the default per-operation id used in log
// lines, so concurrent transfers driven by one process are distinguishable
// from each other.
func newCorrelationID() string {
	return xid.New().String()
}
