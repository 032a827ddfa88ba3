package standards_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/domain"
	"github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards"
	_ "github.com/heatgrid-dss/sizing-backend/internal/pipenet/standards/rules"
)

func testRuleSet() standards.RuleSet {
	return standards.RuleSet{
		ID: "TEST-STD",
		Limits: map[domain.Category]standards.Limits{
			domain.CategoryMain: {
				MinVelocityMS:      0.6,
				MaxVelocityMS:      2.0,
				MaxPressureDropPaM: 150,
			},
		},
	}
}

func mainPipeNet(velocity, dpPerM float64) *domain.Network {
	net := domain.NewNetwork("validate")
	net.AddJunction(domain.Junction{ID: "plant", Role: domain.RolePlant})
	net.AddJunction(domain.Junction{ID: "j1"})
	net.AddPipe(domain.PipeSegment{ID: "p1", From: 0, To: 1, LengthM: 100,
		Category: domain.CategoryMain, VelocityMS: velocity, PressureDropPaM: dpPerM})
	return net
}

func TestValidate(t *testing.T) {
	t.Run("passing pipe scores a clean report", func(t *testing.T) {
		report, err := standards.Validate(mainPipeNet(1.2, 100), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)

		assert.True(t, report.Compliant)
		assert.Empty(t, report.Violations())
		assert.Equal(t, report.TotalChecks, report.PassedChecks)
		assert.InDelta(t, 100, report.Score, 1e-9)
	})

	t.Run("boundary values are compliant", func(t *testing.T) {
		// measured == limit must pass on both ends.
		report, err := standards.Validate(mainPipeNet(2.0, 150), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)
		assert.True(t, report.Compliant)
		assert.Empty(t, report.Violations())

		report, err = standards.Validate(mainPipeNet(0.6, 150), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)
		assert.Empty(t, report.Violations())
	})

	t.Run("violation above the threshold fails compliance", func(t *testing.T) {
		// 2.5 m/s on a 2.0 limit with the default 0.1 band: 2.5 bands over -> HIGH.
		report, err := standards.Validate(mainPipeNet(2.5, 100), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)

		vs := report.Violations()
		require.Len(t, vs, 1)
		assert.Equal(t, "velocity_max", vs[0].Check)
		assert.Equal(t, domain.SeverityHigh, vs[0].Severity)
		assert.False(t, report.Compliant)
		assert.Less(t, report.Score, 100.0)
	})

	t.Run("low-severity violation is reported but stays compliant", func(t *testing.T) {
		// 2.1 m/s is half a tolerance band over the limit: LOW, below the
		// default HIGH threshold.
		report, err := standards.Validate(mainPipeNet(2.1, 100), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)

		vs := report.Violations()
		require.Len(t, vs, 1)
		assert.Equal(t, domain.SeverityLow, vs[0].Severity)
		assert.True(t, report.Compliant)
		assert.Less(t, report.Score, 100.0)
	})

	t.Run("threshold override tightens the verdict", func(t *testing.T) {
		rs := testRuleSet()
		rs.SeverityThreshold = domain.SeverityLow
		report, err := standards.Validate(mainPipeNet(2.1, 100), []standards.RuleSet{rs})
		require.NoError(t, err)
		assert.False(t, report.Compliant)
	})

	t.Run("minimum velocity undershoot is flagged", func(t *testing.T) {
		report, err := standards.Validate(mainPipeNet(0.2, 50), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)

		vs := report.Violations()
		require.Len(t, vs, 1)
		assert.Equal(t, "velocity_min", vs[0].Check)
	})

	t.Run("pressure gradient overshoot is flagged", func(t *testing.T) {
		report, err := standards.Validate(mainPipeNet(1.2, 500), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)

		vs := report.Violations()
		require.Len(t, vs, 1)
		assert.Equal(t, "pressure_drop_per_m", vs[0].Check)
		assert.Equal(t, domain.SeverityCritical, vs[0].Severity)
	})

	t.Run("pipes without a configured band are skipped", func(t *testing.T) {
		net := mainPipeNet(5.0, 1000)
		net.Pipes[0].Category = domain.CategoryStreet
		report, err := standards.Validate(net, []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)
		assert.Empty(t, report.Violations())
	})

	t.Run("every active rule set is applied", func(t *testing.T) {
		strict := testRuleSet()
		strict.ID = "STRICT"
		strict.Limits[domain.CategoryMain] = standards.Limits{MaxVelocityMS: 1.0}

		report, err := standards.Validate(mainPipeNet(1.5, 100),
			[]standards.RuleSet{testRuleSet(), strict})
		require.NoError(t, err)

		vs := report.Violations()
		require.Len(t, vs, 1)
		assert.Equal(t, "STRICT", vs[0].StandardID)
		require.Len(t, report.Results, 2)
	})

	t.Run("no active rule sets is a configuration error", func(t *testing.T) {
		_, err := standards.Validate(mainPipeNet(1.2, 100), nil)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestValidate_TemperatureChecks(t *testing.T) {
	rs := testRuleSet()
	rs.SupplyTempMinC = 60
	rs.SupplyTempMaxC = 95
	rs.DesignReturnTempC = 50
	rs.MinDeltaTK = 20

	t.Run("unfilled junction state skips temperature checks", func(t *testing.T) {
		report, err := standards.Validate(mainPipeNet(1.2, 100), []standards.RuleSet{rs})
		require.NoError(t, err)
		assert.Empty(t, report.Violations())
	})

	t.Run("hot supply is flagged", func(t *testing.T) {
		net := mainPipeNet(1.2, 100)
		net.Junctions[1].TemperatureC = 99
		report, err := standards.Validate(net, []standards.RuleSet{rs})
		require.NoError(t, err)

		vs := report.Violations()
		require.Len(t, vs, 1)
		assert.Equal(t, "supply_temp_max", vs[0].Check)
	})

	t.Run("low temperature spread is flagged", func(t *testing.T) {
		net := mainPipeNet(1.2, 100)
		net.Junctions[1].TemperatureC = 65
		report, err := standards.Validate(net, []standards.RuleSet{rs})
		require.NoError(t, err)

		vs := report.Violations()
		require.Len(t, vs, 1)
		assert.Equal(t, "min_delta_t", vs[0].Check)
		assert.InDelta(t, 15, vs[0].Measured, 1e-9)
	})
}

func TestSeverityFor(t *testing.T) {
	rs := standards.RuleSet{ToleranceBand: 0.1}

	assert.Equal(t, domain.SeverityLow, rs.SeverityFor(0.05, 1.0))
	assert.Equal(t, domain.SeverityLow, rs.SeverityFor(0.1, 1.0))
	assert.Equal(t, domain.SeverityMedium, rs.SeverityFor(0.15, 1.0))
	assert.Equal(t, domain.SeverityHigh, rs.SeverityFor(0.25, 1.0))
	assert.Equal(t, domain.SeverityCritical, rs.SeverityFor(0.5, 1.0))
}

func TestRecommend(t *testing.T) {
	t.Run("systematic undersizing", func(t *testing.T) {
		net := mainPipeNet(2.8, 100)
		report, err := standards.Validate(net, []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)
		require.NotEmpty(t, report.Recommendations)
		assert.Contains(t, report.Recommendations[0], "Systematic undersizing")
	})

	t.Run("no recommendations for a clean network", func(t *testing.T) {
		report, err := standards.Validate(mainPipeNet(1.2, 100), []standards.RuleSet{testRuleSet()})
		require.NoError(t, err)
		assert.Empty(t, report.Recommendations)
	})
}
