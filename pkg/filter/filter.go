// pkg/filter/filter.go - wildcard search over application display names

package filter

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/spf13/pflag"

	"github.com/windowsadmins/appsweep/pkg/apps"
	"github.com/windowsadmins/appsweep/pkg/logging"
)

// TermSeparator separates search terms on the command line.
const TermSeparator = "::"

// MatchKind is the comparison a term performs.
type MatchKind int

const (
	Exact MatchKind = iota
	Prefix
	Suffix
	Contains
)

func (k MatchKind) String() string {
	switch k {
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	case Contains:
		return "contains"
	default:
		return "exact"
	}
}

// Pattern is a parsed search term. Text is lower-cased with the wildcard
// stars removed.
type Pattern struct {
	Kind MatchKind
	Text string
}

// ParsePattern interprets a term: "*text*" contains, "*text" suffix,
// "text*" prefix, anything else an exact match.
func ParsePattern(term string) Pattern {
	leading := strings.HasPrefix(term, "*")
	trailing := strings.HasSuffix(term, "*")
	text := strings.ToLower(strings.Trim(term, "*"))

	switch {
	case leading && trailing:
		return Pattern{Kind: Contains, Text: text}
	case leading:
		return Pattern{Kind: Suffix, Text: text}
	case trailing:
		return Pattern{Kind: Prefix, Text: text}
	default:
		return Pattern{Kind: Exact, Text: text}
	}
}

// Match reports whether name satisfies the pattern, ignoring case.
func (p Pattern) Match(name string) bool {
	name = strings.ToLower(name)
	switch p.Kind {
	case Contains:
		return strings.Contains(name, p.Text)
	case Suffix:
		return strings.HasSuffix(name, p.Text)
	case Prefix:
		return strings.HasPrefix(name, p.Text)
	default:
		return name == p.Text
	}
}

// SplitTerms splits a "::"-separated argument, dropping blank terms.
func SplitTerms(arg string) []string {
	var terms []string
	for _, term := range strings.Split(arg, TermSeparator) {
		if strings.TrimSpace(term) == "" {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

// FindMatches returns, for each term in order, every application whose
// display name matches it. An application matched by several terms appears
// once per term.
func FindMatches(all []apps.Application, terms []string) []apps.Application {
	var matches []apps.Application
	for _, term := range terms {
		pattern := ParsePattern(term)
		for _, app := range all {
			if pattern.Match(app.DisplayName) {
				matches = append(matches, app)
			}
		}
	}
	return matches
}

// OlderThan keeps applications whose DisplayVersion parses and is strictly
// older than limit.
func OlderThan(all []apps.Application, limit string) ([]apps.Application, error) {
	limitVersion, err := version.NewVersion(limit)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", limit, err)
	}

	var kept []apps.Application
	for _, app := range all {
		v, err := version.NewVersion(strings.TrimSpace(app.DisplayVersion))
		if err != nil {
			continue
		}
		if v.LessThan(limitVersion) {
			kept = append(kept, app)
		}
	}
	return kept, nil
}

// TermFilter holds the search flags and applies them to discovered
// applications.
type TermFilter struct {
	terms     string
	olderThan string
	logger    *logging.Logger
}

// NewTermFilter creates a new TermFilter instance
func NewTermFilter(logger *logging.Logger) *TermFilter {
	return &TermFilter{logger: logger}
}

// RegisterFlags registers --terms and --older-than on fs.
func (f *TermFilter) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.terms, "terms", "t", "",
		`Search terms separated by "::". Use *text*, *text or text* for wildcards.`)
	fs.StringVar(&f.olderThan, "older-than", "",
		"Only include applications whose version is older than the given version.")
}

// SetTerms allows setting the terms programmatically
func (f *TermFilter) SetTerms(arg string) {
	f.terms = arg
}

// Terms returns the parsed, non-blank search terms.
func (f *TermFilter) Terms() []string {
	return SplitTerms(f.terms)
}

// SetLogger allows updating the logger after initialization
func (f *TermFilter) SetLogger(logger *logging.Logger) {
	f.logger = logger
}

// HasTerms reports whether at least one non-blank term was given.
func (f *TermFilter) HasTerms() bool {
	return len(f.Terms()) > 0
}

// Apply matches the terms against all and then applies the version limit.
func (f *TermFilter) Apply(all []apps.Application) ([]apps.Application, error) {
	terms := f.Terms()
	matches := FindMatches(all, terms)
	f.logger.Info("Matched applications", "terms", strings.Join(terms, TermSeparator), "matches", len(matches))
	return f.LimitVersion(matches)
}

// LimitVersion applies --older-than to list; without a limit list is
// returned unchanged.
func (f *TermFilter) LimitVersion(list []apps.Application) ([]apps.Application, error) {
	if f.olderThan == "" {
		return list, nil
	}
	filtered, err := OlderThan(list, f.olderThan)
	if err != nil {
		return nil, err
	}
	f.logger.Info("Filtered by version", "older_than", f.olderThan, "remaining", len(filtered))
	return filtered, nil
}
