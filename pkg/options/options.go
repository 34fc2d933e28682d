// Package options defines the generic options contract shared by all
// configurable components of the pipeline service.
package options

import (
	"strings"

	"github.com/spf13/pflag"
)

// IOptions is implemented by every per-concern options struct.
type IOptions interface {
	// Validate validates the options and returns all discovered problems.
	Validate() []error

	// AddFlags registers the options' flags on the given flagset.
	AddFlags(fs *pflag.FlagSet, prefixes ...string)
}

// Join concatenates flag-name prefixes with "." and appends a trailing "."
// when the result is non-empty, producing names like "chat.llm.model".
func Join(prefixes ...string) string {
	joined := strings.Join(prefixes, ".")
	if joined != "" {
		joined += "."
	}
	return joined
}
