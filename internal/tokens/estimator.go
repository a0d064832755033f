// Package tokens provides token estimation utilities using tiktoken.
package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	. "github.com/sqlclaw/sqlclaw/internal/logging"
)

// DefaultEncoding is cl100k_base, a reasonable fit for current chat models
const DefaultEncoding = "cl100k_base"

// Estimator provides token estimation using tiktoken
type Estimator struct {
	encoding *tiktoken.Tiktoken
}

var (
	globalEstimator     *Estimator
	globalEstimatorOnce sync.Once
)

// Get returns the global token estimator (singleton)
func Get() *Estimator {
	globalEstimatorOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			L_warn("tokens: failed to create estimator, using fallback", "error", err)
			globalEstimator = &Estimator{} // chars/4 fallback
			return
		}
		globalEstimator = &Estimator{encoding: enc}
	})
	return globalEstimator
}

// Count returns the token count for a string.
// Falls back to chars/4 if tiktoken is unavailable.
func (e *Estimator) Count(text string) int {
	if e == nil || e.encoding == nil {
		return len(text) / 4
	}
	return len(e.encoding.Encode(text, nil, nil))
}

// Truncate trims text so it fits within budget tokens, cutting at a line
// boundary where possible. Returns text unchanged when it already fits.
func (e *Estimator) Truncate(text string, budget int) string {
	if budget <= 0 || e.Count(text) <= budget {
		return text
	}

	lines := strings.Split(text, "\n")
	var kept []string
	used := 0
	for _, line := range lines {
		n := e.Count(line) + 1
		if used+n > budget {
			break
		}
		kept = append(kept, line)
		used += n
	}
	if len(kept) == 0 && len(lines) > 0 {
		// Single oversized line: fall back to a character cut
		approx := budget * 4
		if approx < len(text) {
			return text[:approx]
		}
	}
	return strings.Join(kept, "\n")
}

// Estimate is a convenience function using the global estimator.
func Estimate(text string) int {
	return Get().Count(text)
}
