// Package size parses and formats memory sizes such as "512MB".
package size

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/squidvm/squid/errz"
)

const (
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB
)

var suffixes = []struct {
	suffix     string
	multiplier float64
}{
	{"GB", GB},
	{"MB", MB},
	{"KB", KB},
}

// Parse converts a size with a GB, MB, KB or B suffix to bytes. Multiples of
// a kilobyte accept fractional magnitudes ("1.5KB"); plain bytes must be a
// whole number.
func Parse(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, sfx := range suffixes {
		if num, ok := strings.CutSuffix(s, sfx.suffix); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
			if err != nil || f < 0 || math.IsInf(f, 0) || math.IsNaN(f) {
				return 0, numericError(s)
			}
			bytes := f * sfx.multiplier
			if bytes >= math.MaxInt64 {
				return 0, numericError(s)
			}
			return int(bytes), nil
		}
	}
	if num, ok := strings.CutSuffix(s, "B"); ok {
		n, err := strconv.ParseUint(strings.TrimSpace(num), 10, 63)
		if err != nil {
			return 0, numericError(s)
		}
		return int(n), nil
	}
	return 0, errz.New(errz.ErrConfig, "Number need a postfix -> GB, MB, KB or B").WithCode(errz.MaxMemConversion)
}

func numericError(s string) error {
	return errz.New(errz.ErrConfig, "Failed to parse numeric part of %q", s).WithCode(errz.MaxMemConversion)
}

// Format renders a byte count with binary units, for example "512 MiB".
func Format(n int) string {
	return humanize.IBytes(uint64(n))
}
