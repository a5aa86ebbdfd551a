package pattern

import "cmp"

// Assemble lays out the song positions one after the other and produces one timeline per key.
// A position without a pattern gives lengths[pos] empty symbols for every key; otherwise each
// row shows symbol(key) where the key sounds and empty elsewhere. All timelines end up with
// the same length: the sum of lengths.
func Assemble[K cmp.Ordered](d Deduped[K], lengths []int, keys []K, symbol func(K) string, empty string) map[K][]string {
	total := 0
	for _, l := range lengths {
		total += l
	}
	tracks := make(map[K][]string, len(keys))
	for _, k := range keys {
		tracks[k] = make([]string, 0, total)
	}
	for pos, number := range d.Sequence {
		if pos >= len(lengths) {
			break
		}
		length := lengths[pos]
		p := d.Pattern(number)
		for _, k := range keys {
			sym := symbol(k)
			for row := 0; row < length; row++ {
				if p != nil && p.Has(k, row) {
					tracks[k] = append(tracks[k], sym)
				} else {
					tracks[k] = append(tracks[k], empty)
				}
			}
		}
	}
	return tracks
}
