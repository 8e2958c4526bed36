package classify

import (
	"fmt"
	"math"

	"github.com/codeready-toolchain/qe-agentflow/pkg/models"
)

// ValidationAction is the correction a cross-reference rule proposes.
type ValidationAction string

const (
	ActionCorrect ValidationAction = "correct"
	ActionConfirm ValidationAction = "confirm"
	ActionFlag    ValidationAction = "flag"
)

// ValidationResult is one rule's verdict against the supplied evidence.
type ValidationResult struct {
	RuleName                string
	Action                  ValidationAction
	OriginalClassification  models.Classification
	SuggestedClassification models.Classification
	ConfidenceAdjustment    float64
	Reason                  string
	Evidence                []string
}

// CrossValidationReport is the outcome of running every cross-reference
// rule against one classification.
type CrossValidationReport struct {
	OriginalClassification models.Classification
	FinalClassification    models.Classification
	OriginalConfidence     float64
	FinalConfidence        float64
	WasCorrected           bool
	NeedsReview            bool
	Summary                string
	ValidationResults      []ValidationResult
}

// ValidationInput bundles the corroborating evidence the validator checks
// the matrix's classification against (spec §4.4.3).
type ValidationInput struct {
	Classification          models.Classification
	Confidence              float64
	FailureType              string
	EnvHealthy               bool
	SelectorFound            *bool
	SelectorRecentlyChanged  bool
	ConsoleHas500Errors      bool
	ConsoleHasNetworkErrors  bool
	ConsoleHasAPIErrors      bool
	ClusterAccessible        bool
	GitHistorySupports       *bool
}

// Validator is the cross-reference validator from spec §4.4.3: it runs a
// fixed set of rules against corroborating evidence and either confirms,
// corrects, or flags the decision matrix's classification for review.
type Validator struct{}

// NewValidator constructs a cross-reference validator.
func NewValidator() *Validator {
	return &Validator{}
}

// rule is one cross-reference check. matches reports whether the rule's
// trigger condition holds for the given input; when it does, apply
// produces the ValidationResult it contributes.
type rule struct {
	name    string
	matches func(in ValidationInput) bool
	apply   func(in ValidationInput) ValidationResult
}

var rules = []rule{
	{
		name: "500_overrides_automation",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationAutomationBug && in.ConsoleHas500Errors
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                 "500_overrides_automation",
				Action:                   ActionCorrect,
				OriginalClassification:   in.Classification,
				SuggestedClassification:  models.ClassificationProductBug,
				ConfidenceAdjustment:     0.15,
				Reason:                   "console logs show 500-range server errors, which automation flakiness cannot produce",
				Evidence:                 []string{"console reported 500-range server errors"},
			}
		},
	},
	{
		name: "500_confirms_product",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationProductBug && in.ConsoleHas500Errors
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "500_confirms_product",
				Action:                  ActionConfirm,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    0.15,
				Reason:                  "console 500-range errors corroborate the product-bug classification",
				Evidence:                []string{"console reported 500-range server errors"},
			}
		},
	},
	{
		name: "cluster_unhealthy_overrides_automation",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationAutomationBug && !in.EnvHealthy && !in.ClusterAccessible
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                 "cluster_unhealthy_overrides_automation",
				Action:                   ActionCorrect,
				OriginalClassification:   in.Classification,
				SuggestedClassification:  models.ClassificationInfrastructure,
				ConfidenceAdjustment:     0.20,
				Reason:                   "the cluster was inaccessible at failure time, which automation defects cannot explain",
				Evidence:                 []string{"environment unhealthy", "cluster inaccessible"},
			}
		},
	},
	{
		name: "cluster_unhealthy_confirms_infrastructure",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationInfrastructure && !in.EnvHealthy && !in.ClusterAccessible
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "cluster_unhealthy_confirms_infrastructure",
				Action:                  ActionConfirm,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    0.20,
				Reason:                  "cluster inaccessibility corroborates the infrastructure classification",
				Evidence:                []string{"environment unhealthy", "cluster inaccessible"},
			}
		},
	},
	{
		name: "selector_changed_flags_product",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationProductBug &&
				NormalizeFailureType(in.FailureType) == FailureElementNotFound && in.SelectorRecentlyChanged
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "selector_changed_flags_product",
				Action:                  ActionFlag,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    -0.15,
				Reason:                  "the selector changed recently, which usually indicates a test automation issue rather than a product defect",
				Evidence:                []string{"selector recently changed in repository history"},
			}
		},
	},
	{
		name: "selector_changed_confirms_automation",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationAutomationBug &&
				NormalizeFailureType(in.FailureType) == FailureElementNotFound && in.SelectorRecentlyChanged
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "selector_changed_confirms_automation",
				Action:                  ActionConfirm,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    0.10,
				Reason:                  "the selector changing recently corroborates the automation-bug classification",
				Evidence:                []string{"selector recently changed in repository history"},
			}
		},
	},
	{
		name: "infra_healthy_env_flags",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationInfrastructure && in.EnvHealthy && in.ClusterAccessible
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "infra_healthy_env_flags",
				Action:                  ActionFlag,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    -0.20,
				Reason:                  "the environment and cluster both reported healthy, which undercuts an infrastructure classification",
				Evidence:                []string{"environment reported healthy", "cluster reachable"},
			}
		},
	},
	{
		name: "network_errors_automation_flags",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationAutomationBug &&
				NormalizeFailureType(in.FailureType) == FailureElementNotFound && in.ConsoleHasNetworkErrors
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "network_errors_automation_flags",
				Action:                  ActionFlag,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    -0.10,
				Reason:                  "console network errors alongside a missing-element failure suggest infrastructure, not automation, may be involved",
				Evidence:                []string{"console reported network errors"},
			}
		},
	},
	{
		name: "api_errors_boost_product",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationProductBug &&
				NormalizeFailureType(in.FailureType) == FailureServerError && in.ConsoleHasAPIErrors
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "api_errors_boost_product",
				Action:                  ActionConfirm,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    0.10,
				Reason:                  "console API errors corroborate the product-bug classification",
				Evidence:                []string{"console reported API errors"},
			}
		},
	},
	{
		name: "element_missing_overrides_product",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationAutomationBug &&
				NormalizeFailureType(in.FailureType) == FailureElementNotFound &&
				in.SelectorFound != nil && !*in.SelectorFound
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                 "element_missing_overrides_product",
				Action:                   ActionCorrect,
				OriginalClassification:   in.Classification,
				SuggestedClassification:  models.ClassificationProductBug,
				ConfidenceAdjustment:     0.15,
				Reason:                   "the selector does not exist anywhere in the repository, so the element was likely removed or renamed by the product",
				Evidence:                 []string{"selector not found anywhere in repository source"},
			}
		},
	},
	{
		name: "element_missing_confirms_product",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationProductBug &&
				NormalizeFailureType(in.FailureType) == FailureElementNotFound &&
				in.SelectorFound != nil && !*in.SelectorFound
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "element_missing_confirms_product",
				Action:                  ActionConfirm,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    0.15,
				Reason:                  "the missing selector corroborates the product-bug classification",
				Evidence:                []string{"selector not found anywhere in repository source"},
			}
		},
	},
	{
		name: "timeout_healthy_confirms_automation",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationAutomationBug &&
				NormalizeFailureType(in.FailureType) == FailureTimeout && in.EnvHealthy
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "timeout_healthy_confirms_automation",
				Action:                  ActionConfirm,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    0.05,
				Reason:                  "a healthy environment at timeout corroborates a flaky wait condition in the test",
				Evidence:                []string{"environment reported healthy at failure time"},
			}
		},
	},
	{
		name: "timeout_healthy_flags_infrastructure",
		matches: func(in ValidationInput) bool {
			return in.Classification == models.ClassificationInfrastructure &&
				NormalizeFailureType(in.FailureType) == FailureTimeout && in.EnvHealthy
		},
		apply: func(in ValidationInput) ValidationResult {
			return ValidationResult{
				RuleName:                "timeout_healthy_flags_infrastructure",
				Action:                  ActionFlag,
				OriginalClassification:  in.Classification,
				SuggestedClassification: in.Classification,
				ConfidenceAdjustment:    -0.15,
				Reason:                  "the environment reported healthy at timeout, which undercuts an infrastructure classification",
				Evidence:                []string{"environment reported healthy at failure time"},
			}
		},
	},
}

// Validate runs every cross-reference rule against in and returns the
// combined report. When more than one rule matches, the rule with the
// largest confidence adjustment magnitude determines the final
// classification and confidence; every matching rule is still recorded in
// ValidationResults for auditability.
func (v *Validator) Validate(in ValidationInput) CrossValidationReport {
	var results []ValidationResult
	needsReview := false

	var winner *ValidationResult
	for _, r := range rules {
		if !r.matches(in) {
			continue
		}
		res := r.apply(in)
		results = append(results, res)
		if res.Action == ActionFlag {
			needsReview = true
		}
		if winner == nil || math.Abs(res.ConfidenceAdjustment) > math.Abs(winner.ConfidenceAdjustment) {
			w := res
			winner = &w
		}
	}

	report := CrossValidationReport{
		OriginalClassification: in.Classification,
		FinalClassification:    in.Classification,
		OriginalConfidence:     in.Confidence,
		FinalConfidence:        in.Confidence,
		NeedsReview:            needsReview,
		ValidationResults:      results,
	}

	if winner == nil {
		report.Summary = "Classification validated; no contradicting evidence found."
		return report
	}

	report.FinalConfidence = models.ClampConfidence(in.Confidence + winner.ConfidenceAdjustment)
	if winner.Action == ActionCorrect {
		report.FinalClassification = winner.SuggestedClassification
		report.WasCorrected = winner.SuggestedClassification != in.Classification
	}

	if report.WasCorrected {
		report.Summary = fmt.Sprintf("Classification corrected from %s to %s: %s", in.Classification, report.FinalClassification, winner.Reason)
	} else if needsReview {
		report.Summary = fmt.Sprintf("Classification flagged for review: %s", winner.Reason)
	} else {
		report.Summary = fmt.Sprintf("Classification confirmed: %s", winner.Reason)
	}

	return report
}
