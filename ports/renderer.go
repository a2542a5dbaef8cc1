package ports

import (
	"context"
	"io"

	"confcurve/domain/curve"
)

// CurveRenderer draws a built confidence curve onto some output surface.
// Renderers only read the result; the aligned Alphas/Lowers/Uppers columns
// are the whole contract with the builder.
type CurveRenderer interface {
	// Format names the output, e.g. "json", "xlsx", "html", "text"
	Format() string

	// Render writes the rendered curve to w
	Render(ctx context.Context, res *curve.Result, w io.Writer) error
}
