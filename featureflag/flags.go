package featureflag

type Flag string

const (
	// Frames the first mesh with the fit distance formula of earlier viewer
	// releases instead of the exact perspective one.
	FlagLegacyFitFormula Flag = "LEGACY_FIT_FORMULA"

	// Stops loading once the scene mesh is shown.
	FlagDisableDeployment Flag = "DISABLE_DEPLOYMENT"

	// Stops loading once the device deployment is shown.
	FlagDisableSimulation Flag = "DISABLE_SIMULATION"
)
