// Package xfer implements the memory transfer channel of the matrix engine:
// a pure burst splitter plus the streaming engines that move split bursts
// over a port as akita mem requests.
package xfer

// A Burst is one bus transaction of a split transfer. Addr and Length are in
// bytes; Last marks the final burst of the sequence.
type Burst struct {
	Addr   uint64
	Length int
	Last   bool
}

// Split cuts a transfer of totalBytes starting at base into bursts of at
// most maxBurst bytes. The result is a finite sequence the engines walk and,
// on a fault, restart from a burst's original address. A zero-length
// transfer yields an empty sequence.
func Split(base uint64, totalBytes, maxBurst int) []Burst {
	if maxBurst < 1 {
		panic("max burst length must be positive")
	}

	if totalBytes <= 0 {
		return nil
	}

	bursts := make([]Burst, 0, (totalBytes+maxBurst-1)/maxBurst)

	for off := 0; off < totalBytes; off += maxBurst {
		length := maxBurst
		if off+length > totalBytes {
			length = totalBytes - off
		}

		bursts = append(bursts, Burst{
			Addr:   base + uint64(off),
			Length: length,
			Last:   off+length == totalBytes,
		})
	}

	return bursts
}
