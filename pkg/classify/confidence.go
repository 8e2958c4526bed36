package classify

import (
	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// EvidenceCompleteness tallies which evidence sources were available when
// building a classification, feeding the confidence calculator's
// evidence_completeness factor (spec §4.4.2).
type EvidenceCompleteness struct {
	HasStackTrace         bool
	HasParsedFrames       bool
	HasRootCauseFile      bool
	HasEnvironmentStatus  bool
	HasRepositoryAnalysis bool
	HasSelectorLookup     bool
	HasGitHistory         bool
	HasConsoleErrors      bool
	HasTestFileContent    bool
}

// Score returns the fraction of the nine evidence factors present.
func (e EvidenceCompleteness) Score() float64 {
	total := 9.0
	count := 0.0
	for _, present := range []bool{
		e.HasStackTrace, e.HasParsedFrames, e.HasRootCauseFile, e.HasEnvironmentStatus,
		e.HasRepositoryAnalysis, e.HasSelectorLookup, e.HasGitHistory, e.HasConsoleErrors,
		e.HasTestFileContent,
	} {
		if present {
			count++
		}
	}
	return count / total
}

// SourceConsistency records what each independent evidence source suggests
// the classification should be, so the calculator can reward agreement
// across sources (spec §4.4.2). Empty strings mean the source had no
// opinion.
type SourceConsistency struct {
	JenkinsSuggests     string
	EnvironmentSuggests string
	RepositorySuggests  string
	ConsoleSuggests     string
}

// Score returns the fraction of opinionated sources that agree with the
// most common suggestion, and that suggestion itself. Fewer than two
// opinionated sources is treated as inconclusive (0.5, no dominant
// suggestion).
func (s SourceConsistency) Score() (score float64, dominant string) {
	suggestions := []string{s.JenkinsSuggests, s.EnvironmentSuggests, s.RepositorySuggests, s.ConsoleSuggests}

	counts := make(map[string]int)
	var order []string
	nonEmpty := 0
	for _, sug := range suggestions {
		if sug == "" {
			continue
		}
		nonEmpty++
		if _, seen := counts[sug]; !seen {
			order = append(order, sug)
		}
		counts[sug]++
	}

	if nonEmpty < 2 {
		if nonEmpty == 1 {
			return 0.5, order[0]
		}
		return 0.5, ""
	}

	best, bestCount := "", 0
	for _, candidate := range order {
		if counts[candidate] > bestCount {
			best, bestCount = candidate, counts[candidate]
		}
	}
	return float64(bestCount) / float64(nonEmpty), best
}

// Calculator computes a weighted confidence breakdown from five factors,
// per spec §4.4.2: score_separation (25%), evidence_completeness (25%),
// source_consistency (20%), selector_certainty (15%), history_signal (15%).
type Calculator struct{}

// NewCalculator constructs a confidence calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

const (
	weightSeparation  = 0.25
	weightEvidence    = 0.25
	weightConsistency = 0.20
	weightSelector    = 0.15
	weightHistory     = 0.15
)

// Calculate combines the five factors into a final confidence in [0.1, 0.95].
// selectorFound and gitHistorySupports are tri-state: nil means unknown.
func (c *Calculator) Calculate(
	scores models.ClassificationScores,
	completeness EvidenceCompleteness,
	consistency SourceConsistency,
	selectorFound *bool,
	selectorRecentlyChanged bool,
	gitHistorySupports *bool,
) models.ConfidenceBreakdown {
	separation := scores.Separation()
	evidenceScore := completeness.Score()
	consistencyScore, dominant := consistency.Score()
	selectorCertainty := selectorCertaintyFor(selectorFound, selectorRecentlyChanged)
	historySignal := historySignalFor(gitHistorySupports, selectorRecentlyChanged)

	raw := weightSeparation*separation +
		weightEvidence*evidenceScore +
		weightConsistency*consistencyScore +
		weightSelector*selectorCertainty +
		weightHistory*historySignal

	final := models.ClampConfidence(raw)

	var warnings []string
	if separation < 0.15 {
		warnings = append(warnings, "classification scores are close; low separation between top candidates")
	}
	if consistencyScore < 0.5 && dominant != "" {
		warnings = append(warnings, "evidence sources disagree on the likely classification")
	}
	if evidenceScore < 0.3 {
		warnings = append(warnings, "little corroborating evidence was available for this classification")
	}

	return models.ConfidenceBreakdown{
		ScoreSeparation:      separation,
		EvidenceCompleteness: evidenceScore,
		SourceConsistency:    consistencyScore,
		SelectorCertainty:    selectorCertainty,
		HistorySignal:        historySignal,
		FinalConfidence:      final,
		Level:                models.LevelFor(final),
		Warnings:             warnings,
	}
}

// QuickConfidence gives a cheap estimate when full evidence hasn't been
// gathered yet, used by agents that need an early read before Phase 3.
func (c *Calculator) QuickConfidence(separation float64, hasFullEvidence bool) float64 {
	base := 0.35 + separation*0.5
	if hasFullEvidence {
		base += 0.15
	}
	return models.ClampConfidence(base)
}

func selectorCertaintyFor(selectorFound *bool, recentlyChanged bool) float64 {
	if selectorFound == nil {
		return 0.3
	}
	if *selectorFound {
		if recentlyChanged {
			return 0.8
		}
		return 0.7
	}
	return 0.85
}

func historySignalFor(gitHistorySupports *bool, selectorRecentlyChanged bool) float64 {
	if gitHistorySupports == nil {
		return 0.5
	}
	if *gitHistorySupports {
		if selectorRecentlyChanged {
			return 0.85
		}
		return 0.75
	}
	return 0.25
}
