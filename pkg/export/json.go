package export

import (
	"context"

	"github.com/hwaldner/cloudcanvas/pkg/canonical"
)

// generateJSON emits the canonical diagram itself. This is the only
// lossless round-trip representation of the model.
func generateJSON(_ context.Context, d *canonical.Diagram) ([]byte, error) {
	return canonical.Marshal(*d)
}
