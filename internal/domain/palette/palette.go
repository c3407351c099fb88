// Package palette holds the ordered note colors. A color's index in the
// palette is its score rank.
package palette

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Size is the number of colors in every palette.
const Size = 5

// Color is a note color.
type Color = colorful.Color

// DefaultHex lists the stock palette, lowest rank first: wine, dark red,
// red, orange, yellow.
var DefaultHex = []string{"#58184A", "#900C3F", "#C70039", "#FF5733", "#FFC30F"}

// Palette is an immutable ordered set of Size distinct colors.
type Palette struct {
	colors [Size]Color
	keys   [Size]string
}

// Default returns the stock palette.
func Default() Palette {
	p, err := FromHex(DefaultHex)
	if err != nil {
		panic(err)
	}
	return p
}

// FromHex parses a palette from hex strings such as "#FF5733".
func FromHex(hex []string) (Palette, error) {
	if len(hex) != Size {
		return Palette{}, fmt.Errorf("%w: want %d colors, got %d", ErrInvalidPalette, Size, len(hex))
	}
	colors := make([]Color, 0, Size)
	for _, h := range hex {
		c, err := colorful.Hex(strings.TrimSpace(h))
		if err != nil {
			return Palette{}, fmt.Errorf("%w: %q: %v", ErrInvalidPalette, h, err)
		}
		colors = append(colors, c)
	}
	return New(colors...)
}

// New builds a palette from exactly Size distinct colors. The input is copied.
func New(colors ...Color) (Palette, error) {
	if len(colors) != Size {
		return Palette{}, fmt.Errorf("%w: want %d colors, got %d", ErrInvalidPalette, Size, len(colors))
	}
	var p Palette
	seen := make(map[string]struct{}, Size)
	for i, c := range colors {
		k := c.Hex()
		if _, dup := seen[k]; dup {
			return Palette{}, fmt.Errorf("%w: duplicate color %s", ErrInvalidPalette, k)
		}
		seen[k] = struct{}{}
		p.colors[i] = c
		p.keys[i] = k
	}
	return p, nil
}

// Len returns Size for a built palette and 0 for the zero value.
func (p Palette) Len() int {
	if p.keys[0] == "" {
		return 0
	}
	return Size
}

// At returns the color at rank i.
func (p Palette) At(i int) Color { return p.colors[i] }

// Colors returns a copy of the colors in rank order.
func (p Palette) Colors() []Color {
	out := make([]Color, Size)
	copy(out, p.colors[:])
	return out
}

// Index returns the rank of c, or -1 when c is not in the palette.
// Colors are compared by their 8-bit hex form.
func (p Palette) Index(c Color) int {
	k := c.Hex()
	for i, pk := range p.keys {
		if pk != "" && pk == k {
			return i
		}
	}
	return -1
}

// Random draws a palette color uniformly.
func (p Palette) Random(rng *rand.Rand) Color {
	return p.colors[rng.Intn(Size)]
}

// Hex returns the palette as hex strings.
func (p Palette) Hex() []string {
	out := make([]string, Size)
	copy(out, p.keys[:])
	return out
}
