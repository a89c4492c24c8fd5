package featureflag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeatureFlag(t *testing.T) {
	f := New([]string{" legacy_fit_formula ", "", string(FlagDisableSimulation)})

	t.Run("is set", func(t *testing.T) {
		require.True(t, f.IsSet(FlagLegacyFitFormula))
		require.True(t, f.IsSet(FlagDisableSimulation))
		require.False(t, f.IsSet(FlagDisableDeployment))
	})

	t.Run("run if set", func(t *testing.T) {
		var runLegacy bool
		f.IfSet(FlagLegacyFitFormula, func() {
			runLegacy = true
		})
		require.True(t, runLegacy)

		var runDisableDeployment bool
		f.IfSet(FlagDisableDeployment, func() {
			runDisableDeployment = true
		})
		require.False(t, runDisableDeployment)
	})

	t.Run("list", func(t *testing.T) {
		require.Equal(t, []string{"DISABLE_SIMULATION", "LEGACY_FIT_FORMULA"}, f.List())
	})

	t.Run("nil feature flag", func(t *testing.T) {
		var nilFlags FeatureFlag
		require.False(t, nilFlags.IsSet(FlagDisableSimulation))
		require.Empty(t, nilFlags.List())
	})
}
