package catalog

import (
	"fmt"
	"strings"

	"github.com/GTDGit/tariff_api/internal/utils"
)

// LoadError describes why the reference data could not be loaded. Row is the
// 1-based sheet row (the header is row 1); zero when the failure is not tied
// to a row.
type LoadError struct {
	Table  string
	Row    int
	Column string
	Err    error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString("load ")
	if e.Table != "" {
		b.WriteString(e.Table)
	} else {
		b.WriteString("reference data")
	}
	if e.Row > 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches utils.ErrDataLoad.
func (e *LoadError) Is(target error) bool {
	return target == utils.ErrDataLoad
}
