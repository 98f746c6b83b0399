package finding

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// MemberSetHash computes the short stable hash of a sorted member set,
// used as the symbol slot for cross-file findings (cycles, duplicate
// clusters — §4.1, §4.3). Identity is a pure function of the member set:
// the id does not change as long as the same files participate, which is
// what keeps reopen tracking meaningful across refactors that only
// reorder or partially touch the group (§4.3, §9 Design Notes — this is
// the fix for the "first file alphabetically" brittleness called out
// there).
func MemberSetHash(members []string) string {
	sorted := append([]string(nil), members...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(sum[:])[:16]
}
