package latency

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	sampleExt        = ".png"
	firstSampleToken = "sample_1"
)

// SampleFilename derives the output path of sample index from the first
// sample's file name: every "sample_1" token becomes "sample_<index>" and
// the extension is forced to .png. A name without the token gets
// "_sample_<index>" appended to its stem.
func SampleFilename(dir, firstName string, index int) string {
	name := norm.NFC.String(firstName)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	token := fmt.Sprintf("sample_%d", index)
	if replaced, ok := replaceSampleToken(stem, token); ok {
		stem = replaced
	} else {
		stem = stem + "_" + token
	}
	return filepath.Join(dir, stem+sampleExt)
}

// replaceSampleToken swaps each "sample_1" not followed by a digit, so
// "sample_10" is left alone while adjacent tokens are all replaced
func replaceSampleToken(s, token string) (string, bool) {
	var b strings.Builder
	found := false
	for {
		i := strings.Index(s, firstSampleToken)
		if i < 0 {
			b.WriteString(s)
			return b.String(), found
		}
		end := i + len(firstSampleToken)
		b.WriteString(s[:i])
		if end < len(s) && s[end] >= '0' && s[end] <= '9' {
			b.WriteString(firstSampleToken)
		} else {
			b.WriteString(token)
			found = true
		}
		s = s[end:]
	}
}
