// Package evaluator implements the pure grading function that turns a
// terminal workflow state into a scored evaluation record.
package evaluator

import (
	"fmt"
	"math"

	"github.com/jeanclaude/jc/internal/runtimeconfig"
	"github.com/jeanclaude/jc/internal/workflow"
)

// Metrics holds the seven component scores, each clamped to [0, 1].
type Metrics struct {
	CompletionRate      float64 `json:"completion_rate"`
	TestPassRate        float64 `json:"test_pass_rate"`
	IterationEfficiency float64 `json:"iteration_efficiency"`
	CostEfficiency      float64 `json:"cost_efficiency"`
	TimeEfficiency      float64 `json:"time_efficiency"`
	VerificationRate    float64 `json:"verification_rate"`
	NoFailures          float64 `json:"no_failures"`
}

// Grade is a letter grade derived from the weighted quality score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Evaluation is the complete, always-producible result of Evaluate.
type Evaluation struct {
	WorkflowID         string   `json:"workflow_id"`
	WorkflowType       string   `json:"workflow_type"`
	TotalFeatures      int      `json:"total_features"`
	CompletedFeatures  int      `json:"completed_features"`
	FailedFeatures     int      `json:"failed_features"`
	IterationCount     int      `json:"iteration_count"`
	TotalCostUSD       float64  `json:"total_cost_usd"`
	TotalDurationMS    int64    `json:"total_duration_ms"`
	VerificationCount  int      `json:"verification_count"`
	VerificationPassed bool     `json:"verification_passed"`
	Metrics            Metrics  `json:"metrics"`
	QualityScore       float64  `json:"quality_score"`
	Grade              Grade    `json:"grade"`
	Summary            string   `json:"summary"`
	Recommendations    []string `json:"recommendations"`
}

var weights = struct {
	completion, testPass, noFailures, iteration, cost, time, verification float64
}{
	completion: 0.30, testPass: 0.20, noFailures: 0.15,
	iteration: 0.10, cost: 0.10, time: 0.10, verification: 0.05,
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func iterationEfficiency(completed, iterations int) float64 {
	if completed == 0 || iterations == 0 {
		return 0
	}
	return clamp01(float64(completed) / float64(iterations))
}

func costEfficiency(totalCost float64, completed int, threshold float64) float64 {
	if completed == 0 {
		return 0
	}
	perFeature := totalCost / float64(completed)
	if perFeature <= threshold {
		return 1
	}
	maxCost := threshold * 4
	if perFeature >= maxCost {
		return 0
	}
	return 1 - (perFeature-threshold)/(maxCost-threshold)
}

func timeEfficiency(totalDurationMS int64, completed int, thresholdMS int64) float64 {
	if completed == 0 {
		return 0
	}
	perFeature := float64(totalDurationMS) / float64(completed)
	threshold := float64(thresholdMS)
	if perFeature <= threshold {
		return 1
	}
	maxTime := threshold * 4
	if perFeature >= maxTime {
		return 0
	}
	return 1 - (perFeature-threshold)/(maxTime-threshold)
}

func qualityScore(m Metrics) float64 {
	score := m.CompletionRate*weights.completion +
		m.TestPassRate*weights.testPass +
		m.NoFailures*weights.noFailures +
		m.IterationEfficiency*weights.iteration +
		m.CostEfficiency*weights.cost +
		m.TimeEfficiency*weights.time +
		m.VerificationRate*weights.verification
	return math.Round(score*10000) / 10000
}

func scoreToGrade(score float64) Grade {
	switch {
	case score >= 0.90:
		return GradeA
	case score >= 0.80:
		return GradeB
	case score >= 0.70:
		return GradeC
	case score >= 0.60:
		return GradeD
	default:
		return GradeF
	}
}

func recommendations(m Metrics, completed, failed, total int) []string {
	var out []string
	if m.CompletionRate < 1.0 {
		out = append(out, fmt.Sprintf("resume workflow to complete %d remaining feature(s)", total-completed))
	}
	if failed > 0 {
		out = append(out, fmt.Sprintf("investigate %d failed feature(s) and retry", failed))
	}
	if m.TestPassRate < 0.8 {
		out = append(out, "improve test coverage by adding test files to features")
	}
	if m.IterationEfficiency < 0.5 {
		out = append(out, "consider breaking down complex features into smaller tasks")
	}
	if m.CostEfficiency < 0.5 {
		out = append(out, "review feature complexity, consider a smaller model for simple tasks")
	}
	if m.TimeEfficiency < 0.5 {
		out = append(out, "optimize prompts and reduce context to improve execution time")
	}
	if m.VerificationRate < 0.5 && m.VerificationRate > 0 {
		out = append(out, "review failing verifications, tests may need updates")
	}
	return out
}

func summary(grade Grade, completed, total, failed int, score float64) string {
	status := "completed"
	if completed != total {
		status = "partially completed"
	}
	failureNote := ""
	if failed > 0 {
		failureNote = fmt.Sprintf(" with %d failure(s)", failed)
	}
	return fmt.Sprintf("Workflow %s%s. Grade: %s (%.0f%%). %d/%d features implemented.",
		status, failureNote, grade, score*100, completed, total)
}

// Evaluate produces a well-formed Evaluation for any WorkflowState,
// including an empty one — it never fails.
func Evaluate(state workflow.State, cfg runtimeconfig.EvaluatorConfig) Evaluation {
	total := len(state.Features)
	completed, failed, withPassingTests := 0, 0, 0
	for _, f := range state.Features {
		switch f.Status {
		case workflow.FeatureCompleted:
			completed++
			if f.TestsPassing {
				withPassingTests++
			}
		case workflow.FeatureFailed:
			failed++
		}
	}

	completionRate := 0.0
	if total > 0 {
		completionRate = float64(completed) / float64(total)
	}
	testPassRate := 0.0
	if completed > 0 {
		testPassRate = float64(withPassingTests) / float64(completed)
	}
	verificationRate := 1.0
	if state.VerificationCount > 0 {
		if state.LastVerificationPass {
			verificationRate = 1.0
		} else {
			verificationRate = 0.0
		}
	}
	noFailures := 1.0
	if failed > 0 {
		noFailures = 0.0
	}

	metrics := Metrics{
		CompletionRate:      clamp01(completionRate),
		TestPassRate:        clamp01(testPassRate),
		IterationEfficiency: iterationEfficiency(completed, state.IterationCount),
		CostEfficiency:      costEfficiency(state.TotalCostUSD, completed, cfg.CostThresholdUSD),
		TimeEfficiency:      timeEfficiency(state.TotalDurationMS, completed, cfg.TimeThresholdMS),
		VerificationRate:    clamp01(verificationRate),
		NoFailures:          noFailures,
	}

	score := qualityScore(metrics)
	grade := scoreToGrade(score)

	return Evaluation{
		WorkflowID:         state.WorkflowID,
		WorkflowType:       state.WorkflowType,
		TotalFeatures:      total,
		CompletedFeatures:  completed,
		FailedFeatures:     failed,
		IterationCount:     state.IterationCount,
		TotalCostUSD:       state.TotalCostUSD,
		TotalDurationMS:    state.TotalDurationMS,
		VerificationCount:  state.VerificationCount,
		VerificationPassed: state.LastVerificationPass,
		Metrics:            metrics,
		QualityScore:       score,
		Grade:              grade,
		Summary:            summary(grade, completed, total, failed, score),
		Recommendations:    recommendations(metrics, completed, failed, total),
	}
}
