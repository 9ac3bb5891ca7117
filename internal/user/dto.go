// AngelaMos | 2026
// dto.go

package user

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ListUsersParams struct {
	Limit  int
	Offset int
}

func (p *ListUsersParams) Normalize() {
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
