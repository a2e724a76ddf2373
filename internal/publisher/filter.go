package publisher

import (
	"fmt"

	"geyser/domain"
)

// Filter drops account updates owned by ignored programs before any encoding work is done.
type Filter struct {
	ignored map[domain.Pubkey]struct{}
}

// NewFilter parses base58 program ids.
func NewFilter(programIgnores []string) (*Filter, error) {
	f := &Filter{ignored: make(map[domain.Pubkey]struct{}, len(programIgnores))}
	for _, s := range programIgnores {
		key, err := domain.ParsePubkey(s)
		if err != nil {
			return nil, fmt.Errorf("program ignore list: %w", err)
		}
		f.ignored[key] = struct{}{}
	}
	return f, nil
}

func (f *Filter) WantsProgram(owner domain.Pubkey) bool {
	if f == nil {
		return true
	}
	_, ignored := f.ignored[owner]
	return !ignored
}
