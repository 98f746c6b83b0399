package state

import "time"

// nowUnixMilli is the real-clock default for MergeOptions.Now. Tests
// inject a fixed function instead, since the scoring/merge invariants
// (§8) must hold for any timestamp, not just wall-clock ones.
func nowUnixMilli() int64 { return time.Now().UnixMilli() }
