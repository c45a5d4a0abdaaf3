package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/cindex/internal/dataset"
)

// tableOptions maps the --delimiter/--decimal flag values, falling back to
// the configured ones when a flag is empty.
func tableOptions(delimiter, decimal string) (dataset.Options, error) {
	var opt dataset.Options
	c := effective()
	if delimiter == "" {
		delimiter = c.Delimiter
	}
	if decimal == "" {
		decimal = c.DecimalSeparator
	}
	switch delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot", "":
		opt.DecimalSeparator = '.'
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	return opt, nil
}
