package bundle

import (
	"archive/zip"
	"context"
	"fmt"

	"github.com/pmorrow/svgdeck/internal/annotation"
)

// SlideReader is the slice of the slide provider the exporter needs.
type SlideReader interface {
	SlideCount() int
	Slide(ctx context.Context, n int) ([]byte, error)
}

// WriteExport writes the downloadable archive: every slide document plus
// the serialized annotation collection under its fixed name. The export
// is write-only; it is never consumed back by the running viewer.
func WriteExport(ctx context.Context, w *zip.Writer, src SlideReader, coll annotation.Collection) error {
	for n := 1; n <= src.SlideCount(); n++ {
		data, err := src.Slide(ctx, n)
		if err != nil {
			return fmt.Errorf("export slide %d: %w", n, err)
		}
		f, err := w.Create(fmt.Sprintf("slide-%d.svg", n))
		if err != nil {
			return fmt.Errorf("create export entry: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("write export entry: %w", err)
		}
	}

	data, err := coll.Marshal()
	if err != nil {
		return err
	}
	f, err := w.Create(AnnotationFileName)
	if err != nil {
		return fmt.Errorf("create export entry: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write export entry: %w", err)
	}
	return nil
}
