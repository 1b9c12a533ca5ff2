package watchdog

import (
	"regexp"

	"codeberg.org/mutker/freezewatch/internal/errors"
)

// CompileWhitelist builds a Whitelist matching any of the given regular
// expressions. It returns nil for an empty pattern list.
func CompileWhitelist(patterns []string) (Whitelist, error) {
	errFactory := errors.New()

	if len(patterns) == 0 {
		return nil, nil
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errFactory.Wrap(ErrInvalidWhitelist, err)
		}
		compiled = append(compiled, re)
	}

	return func(task string) bool {
		for _, re := range compiled {
			if re.MatchString(task) {
				return true
			}
		}
		return false
	}, nil
}
