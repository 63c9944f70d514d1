package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/docker/go-units"
)

// Ulimit is a single resolved `--ulimit name=value` argument, either a
// single value or a soft:hard pair.
type Ulimit struct {
	Name string
	Soft int64
	Hard int64
}

// String renders the ulimit in the form the runtime CLI expects:
// "name=value" or "name=soft:hard".
func (u Ulimit) String() string {
	if u.Soft == u.Hard {
		return fmt.Sprintf("%s=%d", u.Name, u.Soft)
	}
	return fmt.Sprintf("%s=%d:%d", u.Name, u.Soft, u.Hard)
}

// ParseUlimit accepts either a bare integer, a "soft:hard" pair, or either
// side written with a go-units size suffix (e.g. "1g" for a file-size
// ulimit); unknown ulimit names pass straight through unmodified per the
// specification.
func ParseUlimit(name string, value interface{}) (Ulimit, error) {
	switch v := value.(type) {
	case int64:
		return Ulimit{Name: name, Soft: v, Hard: v}, nil
	case int:
		return Ulimit{Name: name, Soft: int64(v), Hard: int64(v)}, nil
	case string:
		if soft, hard, ok := strings.Cut(v, ":"); ok {
			s, err := parseUlimitScalar(soft)
			if err != nil {
				return Ulimit{}, fmt.Errorf("ulimit %s: %w", name, err)
			}
			h, err := parseUlimitScalar(hard)
			if err != nil {
				return Ulimit{}, fmt.Errorf("ulimit %s: %w", name, err)
			}
			return Ulimit{Name: name, Soft: s, Hard: h}, nil
		}
		n, err := parseUlimitScalar(v)
		if err != nil {
			return Ulimit{}, fmt.Errorf("ulimit %s: %w", name, err)
		}
		return Ulimit{Name: name, Soft: n, Hard: n}, nil
	default:
		return Ulimit{}, fmt.Errorf("ulimit %s: unsupported value type %T", name, value)
	}
}

func parseUlimitScalar(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	return units.RAMInBytes(s)
}
