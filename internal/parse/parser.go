package parse

import (
	"regexp"

	"github.com/jasonnardone/voice-caddy/internal/game"
)

// Distances of 600 yards or more are never on a golf screen.
var distanceValid = func(v int) bool { return v > 0 && v < 600 }

// DistanceRules find the distance to the pin.
var DistanceRules = []Rule{
	{Pattern: regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:yards?|yds?|y)\b`), Valid: distanceValid},
	{Pattern: regexp.MustCompile(`(?i)(?:distance|to pin)[:\s]*(\d{1,3})\b`), Valid: distanceValid},
}

// HoleRules find the hole number.
var HoleRules = []Rule{
	{Pattern: regexp.MustCompile(`(?i)\bhole[:#\s]*(\d{1,2})\b`), Valid: Between(1, 18)},
}

// ParRules find the hole par.
var ParRules = []Rule{
	{Pattern: regexp.MustCompile(`(?i)\bpar[:\s]*(\d)\b`), Valid: OneOf(3, 4, 5)},
}

// WindRules find the wind speed in mph.
var WindRules = []Rule{
	{Pattern: regexp.MustCompile(`(?i)wind[:\s]*(\d{1,2})\s*(?:mph|m\.p\.h\.?)`), Valid: Between(0, 50)},
	{Pattern: regexp.MustCompile(`(?i)\b(\d{1,2})\s*mph\b`), Valid: Between(0, 50)},
	{Pattern: regexp.MustCompile(`(?i)\bmph[:\s]*(\d{1,2})\b`), Valid: Between(0, 50)},
}

// Parser extracts a [game.Observation] from recognised text. The zero
// value is not usable; call [New].
type Parser struct {
	distance []Rule
	hole     []Rule
	par      []Rule
	wind     []Rule
	lies     *LieMatcher
}

// Option configures a [Parser].
type Option func(*Parser)

// WithDistanceRules replaces the distance rules.
func WithDistanceRules(rules []Rule) Option {
	return func(p *Parser) { p.distance = rules }
}

// WithWindRules replaces the wind rules.
func WithWindRules(rules []Rule) Option {
	return func(p *Parser) { p.wind = rules }
}

// WithLieMatcher replaces the lie matcher.
func WithLieMatcher(m *LieMatcher) Option {
	return func(p *Parser) { p.lies = m }
}

// New returns a parser with the default rule set.
func New(opts ...Option) *Parser {
	p := &Parser{
		distance: DistanceRules,
		hole:     HoleRules,
		par:      ParRules,
		wind:     WindRules,
		lies:     NewLieMatcher(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse extracts every field it can validate from text. It never fails;
// fields with no valid candidate are left unset.
func (p *Parser) Parse(text string) game.Observation {
	var o game.Observation
	if text == "" {
		return o
	}
	if v, ok := Extract(text, p.hole); ok {
		o.Hole = game.Known(v)
	}
	if v, ok := Extract(text, p.par); ok {
		o.Par = game.Known(v)
	}
	if v, ok := Extract(text, p.distance); ok {
		o.Distance = game.Known(v)
	}
	if v, ok := Extract(text, p.wind); ok {
		o.Wind = game.Known(v)
	}
	o.Lie = p.lies.Match(text)
	return o
}
