package present

import (
	"context"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/wippyai/pidview/errors"
	"github.com/wippyai/pidview/frame"
)

// PNG writes each presented frame to a file.
type PNG struct {
	Path  string
	Level png.CompressionLevel
}

var _ Sink = (*PNG)(nil)

func NewPNG(path string) *PNG {
	return &PNG{Path: path, Level: png.DefaultCompression}
}

// Present encodes f next to Path and renames it into place, so a failed
// write never leaves a truncated image behind.
func (p *PNG) Present(_ context.Context, f *frame.Frame) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(p.Path), ".pidview-*.png")
	if err != nil {
		return errors.Wrap(errors.PhasePresent, errors.KindIO, err, "create output file")
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	enc := png.Encoder{CompressionLevel: p.Level}
	if encErr := enc.Encode(tmp, f.Image()); encErr != nil {
		err = multierr.Append(
			errors.Wrap(errors.PhasePresent, errors.KindInvalidData, encErr, "encode png"),
			tmp.Close(),
		)
		return err
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(errors.PhasePresent, errors.KindIO, err, "write output file")
	}
	if err = os.Rename(tmp.Name(), p.Path); err != nil {
		return errors.Wrap(errors.PhasePresent, errors.KindIO, err, "rename output file")
	}
	return nil
}

// Fail writes nothing; an existing file at Path is left untouched.
func (p *PNG) Fail(context.Context, error) {}
