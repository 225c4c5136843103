package prompt

import "strings"

// Longer patterns first so a marker with its attached role literal goes as
// one unit; a bare role word inside normal text is left alone.
var cleanReplacer = strings.NewReplacer(
	turnStart+userLiteral, "",
	turnStart+modelLiteral, "",
	"<end_of_turn>", "",
	turnStart, "",
)

// Clean strips turn markers and their attached role literals out of raw
// model output and trims surrounding whitespace. Runs to a fixpoint so the
// result is stable under repeated cleaning, even when removals expose new
// marker text. An empty result is legitimate output, not an error.
func Clean(raw string) string {
	out := raw
	for {
		next := cleanReplacer.Replace(out)
		if next == out {
			break
		}
		out = next
	}
	return strings.TrimSpace(out)
}
