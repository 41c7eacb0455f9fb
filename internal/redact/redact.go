// Package redact scrubs likely secrets out of prompt transcripts before
// they are written into a working log, an authorship log, or a note (spec
// §4.8, supplemental — ambient). Detection layers two passes: a Shannon
// entropy scan over high-entropy tokens, and a gitleaks rule-based scan;
// a span is redacted if either pass flags it.
package redact

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/stuartsessions/git-ai-sub000/internal/prompt"
)

// highEntropyToken matches candidate secret-shaped runs: alphanumeric plus
// the handful of separators base64/hex/token encodings commonly use.
var highEntropyToken = regexp.MustCompile(`[A-Za-z0-9/+_=-]{10,}`)

// entropyThreshold is the minimum Shannon entropy, in bits per byte, for a
// token to be treated as a secret. Chosen empirically: high enough that
// ordinary words and identifiers don't trip it, low enough that typical
// API keys and tokens (entropy well above 5) do.
const entropyThreshold = 4.5

var (
	detectorOnce sync.Once
	detector     *detect.Detector
)

func gitleaksDetector() *detect.Detector {
	detectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		detector = d
	})
	return detector
}

// span is a byte range within a string slated for redaction.
type span struct{ start, end int }

const placeholder = "[REDACTED]"

// String returns s with every detected secret span replaced by a
// placeholder. Overlapping spans from the two detection passes are merged
// before substitution so a secret isn't double-redacted.
func String(s string) string {
	var spans []span

	for _, loc := range highEntropyToken.FindAllStringIndex(s, -1) {
		if shannonEntropy(s[loc[0]:loc[1]]) > entropyThreshold {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}

	if d := gitleaksDetector(); d != nil {
		for _, finding := range d.DetectString(s) {
			if finding.Secret == "" {
				continue
			}
			for from := 0; ; {
				idx := strings.Index(s[from:], finding.Secret)
				if idx < 0 {
					break
				}
				at := from + idx
				spans = append(spans, span{at, at + len(finding.Secret)})
				from = at + len(finding.Secret)
			}
		}
	}

	if len(spans) == 0 {
		return s
	}
	return applySpans(s, mergeSpans(spans))
}

func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
			continue
		}
		merged = append(merged, sp)
	}
	return merged
}

func applySpans(s string, spans []span) string {
	var b strings.Builder
	prev := 0
	for _, sp := range spans {
		b.WriteString(s[prev:sp.start])
		b.WriteString(placeholder)
		prev = sp.end
	}
	b.WriteString(s[prev:])
	return b.String()
}

// Messages returns a redacted copy of a prompt transcript plus whether any
// text was changed, so the caller can emit the single required warning
// (spec §7: "a transcript that fails redaction ... omitted, with a single
// warning" treats transcript content the same way a budget overrun does).
func Messages(messages []prompt.Message) ([]prompt.Message, bool) {
	out := make([]prompt.Message, len(messages))
	changed := false
	for i, m := range messages {
		redactedText := String(m.Text)
		if redactedText != m.Text {
			changed = true
		}
		out[i] = prompt.Message{Type: m.Type, Text: redactedText, Timestamp: m.Timestamp}
	}
	return out, changed
}

func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[byte]int, len(s))
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	total := float64(len(s))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
