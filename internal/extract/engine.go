package extract

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/exemplar/internal/domain"
)

// Strategy names reported in Result.Strategy
const (
	StrategyJSON           = "json"
	StrategyStructured     = "structured"
	StrategySmart          = "smart"
	StrategyFeatures       = "features"
	StrategyExpectedOutput = "expected_output"
	StrategyHalfSplit      = "half_split"
	StrategyEmpty          = "empty"
)

// Source is the text handed to every strategy
type Source struct {
	CasesText      string
	ExpectedOutput string

	lines []string
}

// NewSource prepares the raw texts for parsing
func NewSource(casesText, expectedOutput string) Source {
	return Source{
		CasesText:      casesText,
		ExpectedOutput: expectedOutput,
		lines:          splitLines(casesText),
	}
}

// Lines returns the normalized lines of the cases text
func (s Source) Lines() []string {
	return s.lines
}

// Blank reports whether both texts are empty after trimming
func (s Source) Blank() bool {
	return strings.TrimSpace(s.CasesText) == "" && strings.TrimSpace(s.ExpectedOutput) == ""
}

// Strategy is one way of recovering cases. Parse returns nil or an empty
// slice when the strategy does not apply.
type Strategy interface {
	Name() string
	Parse(src Source) []domain.TestCase
}

type jsonStrategy struct{}

func (jsonStrategy) Name() string { return StrategyJSON }

func (jsonStrategy) Parse(src Source) []domain.TestCase {
	return TryJSON(src.CasesText)
}

type structuredStrategy struct{}

func (structuredStrategy) Name() string { return StrategyStructured }

func (structuredStrategy) Parse(src Source) []domain.TestCase {
	return TryStructured(src.CasesText)
}

type smartStrategy struct{}

func (smartStrategy) Name() string { return StrategySmart }

func (smartStrategy) Parse(src Source) []domain.TestCase {
	return TrySmartSplit(src.Lines())
}

type featureStrategy struct{}

func (featureStrategy) Name() string { return StrategyFeatures }

func (featureStrategy) Parse(src Source) []domain.TestCase {
	return splitOnFeatures(src.Lines())
}

// expectedOutputStrategy pairs unlabeled cases text with a separate
// expected-output blob, the legacy two-field format.
type expectedOutputStrategy struct{}

func (expectedOutputStrategy) Name() string { return StrategyExpectedOutput }

func (expectedOutputStrategy) Parse(src Source) []domain.TestCase {
	expected := nonBlank(splitLines(src.ExpectedOutput))
	if len(expected) == 0 {
		return nil
	}
	inputs := nonBlank(src.Lines())

	// one expected line per input line
	if len(inputs) > 1 && len(inputs) == len(expected) {
		cases := make([]domain.TestCase, len(inputs))
		for i := range inputs {
			cases[i] = domain.AssessCase(inputs[i], expected[i])
		}
		return cases
	}
	return []domain.TestCase{domain.AssessCase(joinLines(inputs), joinLines(expected))}
}

type halfSplitStrategy struct{}

func (halfSplitStrategy) Name() string { return StrategyHalfSplit }

func (halfSplitStrategy) Parse(src Source) []domain.TestCase {
	if len(nonBlank(src.Lines())) == 0 {
		return nil
	}
	return FallbackSplit(src.Lines())
}

// DefaultStrategies returns the standard chain, most structured first
func DefaultStrategies() []Strategy {
	return []Strategy{
		jsonStrategy{},
		structuredStrategy{},
		smartStrategy{},
		featureStrategy{},
		expectedOutputStrategy{},
		halfSplitStrategy{},
	}
}

// StrategiesByName resolves a configured chain. An empty list yields the
// default chain; an unknown name is an error.
func StrategiesByName(names []string) ([]Strategy, error) {
	if len(names) == 0 {
		return DefaultStrategies(), nil
	}
	known := make(map[string]Strategy)
	for _, s := range DefaultStrategies() {
		known[s.Name()] = s
	}
	chain := make([]Strategy, 0, len(names))
	for _, name := range names {
		s, ok := known[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown extraction strategy %q", name)
		}
		chain = append(chain, s)
	}
	return chain, nil
}

// Result is the outcome of one extraction
type Result struct {
	Cases    domain.TestCaseList `json:"cases"`
	Strategy string              `json:"strategy"`
}

// Engine runs a strategy chain. The zero value is not usable; build one
// with NewEngine.
type Engine struct {
	strategies []Strategy
}

// NewEngine creates an engine over the given chain, or the default chain
// when none is given.
func NewEngine(strategies ...Strategy) *Engine {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Engine{strategies: strategies}
}

// Strategies lists the strategy names in chain order
func (e *Engine) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Extract returns the cases of the first strategy that yields any. The
// result always holds at least one case.
func (e *Engine) Extract(casesText, expectedOutput string) Result {
	src := NewSource(casesText, expectedOutput)
	if src.Blank() {
		return Result{Cases: domain.EmptyTestCaseList(), Strategy: StrategyEmpty}
	}

	for _, s := range e.strategies {
		if cases := s.Parse(src); len(cases) > 0 {
			return Result{Cases: domain.TestCaseList(cases), Strategy: s.Name()}
		}
	}
	return Result{Cases: domain.EmptyTestCaseList(), Strategy: StrategyEmpty}
}

var defaultEngine = NewEngine()

// ExtractTestCases runs the default chain over the example text and the
// optional expected-output text.
func ExtractTestCases(casesText, expectedOutput string) domain.TestCaseList {
	return defaultEngine.Extract(casesText, expectedOutput).Cases
}
