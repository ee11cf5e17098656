// Package chunktest provides helpers for partitioning input strings into
// feed chunks when testing streaming consumers.
package chunktest

// Split partitions s into chunks of at most size bytes.
// Use this to exercise a fixed chunk width.
//
// Example:
//
//	for _, chunk := range chunktest.Split(input, 3) {
//		result, err = p.Feed(chunk)
//	}
func Split(s string, size int) []string {
	if size < 1 {
		size = 1
	}

	var chunks []string

	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}

	return append(chunks, s)
}

// Bytes partitions s into single-byte chunks, the most hostile streaming
// schedule.
func Bytes(s string) []string {
	return Split(s, 1)
}

// Partitions enumerates every partition of s into non-empty contiguous
// chunks. There are 2^(len(s)-1) partitions; keep inputs short.
//
// Example:
//
//	for _, chunks := range chunktest.Partitions(`{"a":1}`) {
//		// feed chunks to a fresh parser
//	}
func Partitions(s string) [][]string {
	if s == "" {
		return [][]string{{}}
	}

	var out [][]string

	for cut := 1; cut <= len(s); cut++ {
		head := s[:cut]

		if cut == len(s) {
			out = append(out, []string{head})

			continue
		}

		for _, rest := range Partitions(s[cut:]) {
			out = append(out, append([]string{head}, rest...))
		}
	}

	return out
}

// SeededSplit partitions s deterministically with pseudo-random chunk
// sizes between 1 and maxSize, derived from seed. The same seed always
// yields the same partition.
func SeededSplit(s string, maxSize int, seed uint64) []string {
	if maxSize < 1 {
		maxSize = 1
	}

	var chunks []string

	state := seed

	for len(s) > 0 {
		// xorshift64 step.
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17

		size := int(state%uint64(maxSize)) + 1
		if size > len(s) {
			size = len(s)
		}

		chunks = append(chunks, s[:size])
		s = s[size:]
	}

	return chunks
}
