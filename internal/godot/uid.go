package godot

import (
	"github.com/cespare/xxhash"
)

// uidBase is the digit count of the uid text alphabet (a-z then 0-9).
const uidBase = 36

// UIDFor builds a deterministic uid://... for a res-relative path.
// The same path always yields the same uid.
func UIDFor(resPath string) string {
	h := xxhash.Sum64String("res://" + NormalizePath(resPath))
	return UIDText(h & (1<<63 - 1))
}

// UIDText renders a numeric uid the way Godot writes it.
func UIDText(id uint64) string {
	var buf [16]byte
	i := len(buf)
	for {
		c := id % uidBase
		i--
		if c < 26 {
			buf[i] = byte('a' + c)
		} else {
			buf[i] = byte('0' + c - 26)
		}

		id /= uidBase
		if id == 0 {
			break
		}
	}

	return "uid://" + string(buf[i:])
}
