package venues

import (
	"github.com/crossvenue/arbengine/internal/domain"
)

// unknownBuilder backs every venue kind with no registered builder.
// It never produces an instruction; detected opportunities on
// unsupported venues are logged, priced, but never executed.
type unknownBuilder struct {
	kind domain.VenueKind
}

func (u unknownBuilder) Kind() domain.VenueKind { return u.kind }

func (u unknownBuilder) BuildSwap(SwapParams) (domain.Instruction, error) {
	return domain.Instruction{}, domain.ErrVenueUnsupported
}
