package palette

import "errors"

// ErrInvalidPalette reports a palette that is not exactly Size distinct colors.
var ErrInvalidPalette = errors.New("invalid palette")
