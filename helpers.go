package handledb

// UpperBound returns the smallest key that sorts after every key starting with
// prefix, for use as an exclusive scan limit.
//
// It drops trailing 0xFF bytes and increments the last remaining byte:
// [0x01, 0x02, 0xFF] gives [0x01, 0x03]. If prefix is empty or all 0xFF there
// is no such key and UpperBound returns nil, meaning "no limit".
func UpperBound(prefix []byte) (limit []byte) {
	for i := len(prefix) - 1; i >= 0; i-- {
		c := prefix[i]
		if c == 0xFF {
			continue
		}
		limit = make([]byte, i+1)
		copy(limit, prefix)
		limit[i] = c + 1
		break
	}
	return limit
}
