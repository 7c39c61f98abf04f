package commission

import (
	"strings"

	"github.com/clinicrx/backend/internal/domain/shared"
)

// Referrer is a doctor or agent who earns commission on referred diagnostics
type Referrer struct {
	shared.BaseEntity
	Name string
	Area string
}

// NewReferrer creates a referrer
func NewReferrer(name, area string) (*Referrer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError(shared.CodeValidationFailed, "name", "referrer name cannot be empty")
	}
	return &Referrer{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Area:       strings.TrimSpace(area),
	}, nil
}

// Clone returns a copy
func (r *Referrer) Clone() *Referrer {
	c := *r
	return &c
}
