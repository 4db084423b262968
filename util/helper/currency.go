package helper_util

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatFine renders a fine amount with the fixed two-decimal
// convention and the ASCII currency code. The peso glyph is not
// reliably renderable by the default PDF font, so exports and SMS
// messages use "PHP" throughout.
func FormatFine(amount float64) string {
	return "PHP " + groupThousands(strconv.FormatFloat(amount, 'f', 2, 64))
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if frac != "" {
		out = fmt.Sprintf("%s.%s", out, frac)
	}
	if neg {
		out = "-" + out
	}
	return out
}
