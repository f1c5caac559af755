package geompack

import (
	jsbin "github.com/flywave/go-3jsbin"
	"github.com/pkg/errors"
)

// ThreejsBinFormat loads the legacy three.js binary model format. The
// decoder produces an MST container which is then flattened.
type ThreejsBinFormat struct{}

func (cv *ThreejsBinFormat) Load(path string) (*Mesh, error) {
	mh, err := jsbin.ThreejsBin2Mst(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading three.js binary %s", path)
	}
	return FromMst(mh), nil
}

var _ FormatLoader = (*ThreejsBinFormat)(nil)
