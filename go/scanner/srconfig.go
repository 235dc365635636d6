package scanner

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/srnotes/sr/go/adapter"
)

// srConfigName marks a directory whose files all route through one adapter.
const srConfigName = ".sr.config"

// readSRConfig parses a flat key=value config file. Values are typed
// minimally: quoted strings are unquoted, integers and booleans are
// converted, everything else stays a string.
func readSRConfig(path string) (adapter.SourceConfig, error) {
	var text, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	var config = make(adapter.SourceConfig)
	for _, line := range strings.Split(string(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var key, value, ok = strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) && len(value) >= 2:
			config[key] = value[1 : len(value)-1]
		case value == "true":
			config[key] = true
		case value == "false":
			config[key] = false
		default:
			if n, err := strconv.Atoi(value); err == nil {
				config[key] = n
			} else {
				config[key] = value
			}
		}
	}
	return config, nil
}
