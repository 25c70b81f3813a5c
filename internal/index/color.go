package index

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Display colors. The first three churches of a website get fixed,
// visually distinct pastels; later ones get a hash-derived pastel so the
// assignment stays stable across runs.
const (
	colorOther    = "#E8A5B3"
	colorNoChurch = "lightgray"
)

var fixedPalette = [...]string{"#C0EDF2", "#B7E7CC", "#E4D8F3"}

// ChurchColor returns the display color for the church at the given
// position in merge order.
func ChurchColor(position int) string {
	if position >= 0 && position < len(fixedPalette) {
		return fixedPalette[position]
	}

	sum := xxhash.Sum64String(strconv.Itoa(position))
	r := pastel(byte(sum >> 56))
	g := pastel(byte(sum >> 48))
	b := pastel(byte(sum >> 40))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// pastel mixes a channel 60% toward white so generated colors stay light
// enough for text on top.
func pastel(c byte) byte {
	const factor = 0.6
	return byte(int(c) + int(float64(255-int(c))*factor))
}

// NoChurchColor returns the color for occurrences without a real church.
func NoChurchColor(isExplicitlyOther bool) string {
	if isExplicitlyOther {
		return colorOther
	}
	return colorNoChurch
}
