// Package compress adapts an external codec for the layout engine.
// The original linker treats compression as an opaque, project-local
// codec; this implementation backs it with
// github.com/pierrec/lz4/v4, a block-compression library already
// present in the retrieved corpus's dependency graph. See DESIGN.md
// for why lz4 stands in for the original's bespoke codec.
package compress

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// ErrBadConfig is returned for a compression method outside {0, 1}.
var ErrBadConfig = errors.New("bad compression method")

// Settings are the optional, codec-specific compression parameters.
// Offsets and Lengths are accepted for config-shape compatibility with
// the original script format but are not meaningful lz4 tuning knobs.
type Settings struct {
	Method  *int
	Offsets []uint32
	Lengths []uint32
}

// Compress runs original through the codec selected by settings.
// Method 0 ("one-sample") is the default, mapped to lz4's fast level;
// method 1 ("two-sample") is mapped to lz4's maximum level.
func Compress(original []byte, settings *Settings) ([]byte, error) {
	level := lz4.Fast
	if settings != nil && settings.Method != nil {
		switch *settings.Method {
		case 0:
			level = lz4.Fast
		case 1:
			level = lz4.Level9
		default:
			return nil, fmt.Errorf("method %d: %w", *settings.Method, ErrBadConfig)
		}
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(level)); err != nil {
		return nil, fmt.Errorf("configuring lz4 encoder: %w", err)
	}
	if _, err := w.Write(original); err != nil {
		return nil, fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing compressed stream: %w", err)
	}

	return buf.Bytes(), nil
}
