// pkg/utils/args.go - command line argument helpers.

package utils

import "strings"

// legacyValueFlags take their value after a colon, e.g. -terms:a::b.
var legacyValueFlags = []string{"operation", "terms", "output"}

// legacySwitches are single-dash long switches, e.g. -quiet.
var legacySwitches = []string{"quiet", "help", "checkonly"}

// NormalizeLegacyArgs rewrites the historic "-name:value" and "-switch"
// syntax to GNU-style long flags so both forms parse the same way.
// Arguments already in the new form are returned unchanged.
func NormalizeLegacyArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, normalizeLegacyArg(arg))
	}
	return out
}

func normalizeLegacyArg(arg string) string {
	if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
		return arg
	}
	body := arg[1:]
	lower := strings.ToLower(body)

	for _, name := range legacyValueFlags {
		if strings.HasPrefix(lower, name+":") {
			return "--" + name + "=" + body[len(name)+1:]
		}
	}
	for _, name := range legacySwitches {
		if lower == name {
			return "--" + name
		}
	}
	return arg
}
