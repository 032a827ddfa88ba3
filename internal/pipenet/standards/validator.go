// Package standards checks a sized or simulated network against one or
// more engineering rule sets and produces a scored violation report.
package standards

import (
	"fmt"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
)

// Validate runs every registered check for every pipe against every active
// rule set. No violation is ever dropped; severity only affects the overall
// compliant verdict.
func Validate(net *domain.Network, sets []RuleSet) (*domain.ComplianceReport, error) {
	if net == nil {
		return nil, fmt.Errorf("standards: network is nil")
	}
	if len(sets) == 0 {
		return nil, domain.NewConfigurationError("standards", "no active rule sets")
	}
	checks := All()
	if len(checks) == 0 {
		return nil, fmt.Errorf("standards: no checks registered")
	}

	report := &domain.ComplianceReport{Compliant: true}
	for _, rs := range sets {
		threshold := rs.severityThreshold()
		for i := range net.Pipes {
			result := domain.ComplianceResult{
				PipeID:     net.Pipes[i].ID,
				StandardID: rs.ID,
				Passed:     true,
				Violations: []domain.Violation{},
			}
			for _, c := range checks {
				report.TotalChecks++
				vs := c.Evaluate(net, i, rs)
				if len(vs) == 0 {
					report.PassedChecks++
					continue
				}
				result.Passed = false
				result.Violations = append(result.Violations, vs...)
				for _, v := range vs {
					if v.Severity.AtLeast(threshold) {
						report.Compliant = false
					}
				}
			}
			report.Results = append(report.Results, result)
		}
	}

	if report.TotalChecks > 0 {
		report.Score = float64(report.PassedChecks) / float64(report.TotalChecks) * 100
	}
	report.Recommendations = Recommend(net, report)
	return report, nil
}
