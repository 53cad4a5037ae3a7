package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, cranial.AxisWidth, cfg.Axis())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		EnvLogLevel:    "debug",
		EnvThresholds:  "dashboard",
		EnvAxisScaling: "aspect",
		EnvLocale:      "pt-BR",
	}))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "dashboard", cfg.ThresholdsPreset)
	assert.Equal(t, cranial.AxisAspect, cfg.Axis())
	assert.Equal(t, "pt-BR", cfg.Locale)
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]map[string]string{
		"level":      {EnvLogLevel: "verbose"},
		"preset":     {EnvThresholds: "legacy"},
		"axis":       {EnvAxisScaling: "height"},
		"locale":     {EnvLocale: "fr"},
		"thresholds": {EnvThresholdsFile: "table.yaml"},
	}
	for name, vars := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(env(vars))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "CRANIAL_MCP_THRESHOLDS=dashboard\n")
	t.Setenv(EnvThresholds, "")
	os.Unsetenv(EnvThresholds)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", cfg.ThresholdsPreset)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadThresholds_PartialOverride(t *testing.T) {
	path := writeFile(t, "thresholds.json", `{
		"cvai": {"bands": [
			{"name": "normal", "max": 3.5, "severity": "normal"},
			{"name": "leve", "max": 7, "severity": "mild"},
			{"name": "grave", "severity": "severe"}
		]}
	}`)

	tbl, err := LoadThresholds(path, cranial.ScientificThresholds())
	require.NoError(t, err)
	assert.Equal(t, "scientific+custom", tbl.Name)
	assert.Len(t, tbl.CVAI.Bands, 3)
	assert.Equal(t, cranial.ScientificThresholds().CranialIndex, tbl.CranialIndex)

	c := cranial.Classify(80, 6.5, tbl)
	assert.Equal(t, cranial.SeverityMild, c.Severity)
}

func TestLoadThresholds_PresetSwitch(t *testing.T) {
	path := writeFile(t, "thresholds.json", `{"preset": "dashboard", "name": "clinic-a"}`)
	tbl, err := LoadThresholds(path, cranial.ScientificThresholds())
	require.NoError(t, err)
	assert.Equal(t, "clinic-a", tbl.Name)
	assert.Equal(t, cranial.DashboardThresholds().CranialIndex, tbl.CranialIndex)
}

func TestLoadThresholds_Invalid(t *testing.T) {
	bad := writeFile(t, "bad.json", `{"cvai": {"bands": [{"name": "x", "max": 3, "severity": "normal"}]}}`)
	_, err := LoadThresholds(bad, cranial.ScientificThresholds())
	assert.Error(t, err)

	garbage := writeFile(t, "garbage.json", `{`)
	_, err = LoadThresholds(garbage, cranial.ScientificThresholds())
	assert.Error(t, err)

	wrongExt := writeFile(t, "table.txt", `{}`)
	_, err = LoadThresholds(wrongExt, cranial.ScientificThresholds())
	assert.Error(t, err)
}

func TestReference(t *testing.T) {
	growth := writeFile(t, "growth.json", `{
		"name": "tiny",
		"male": [{"age_months": 0, "lower_mm": 300, "upper_mm": 380}, {"age_months": 6, "lower_mm": 400, "upper_mm": 460}],
		"female": [{"age_months": 0, "lower_mm": 300, "upper_mm": 370}, {"age_months": 6, "lower_mm": 390, "upper_mm": 450}]
	}`)
	cfg := Default()
	cfg.GrowthFile = growth

	ref, err := cfg.Reference()
	require.NoError(t, err)
	assert.Equal(t, cranial.PresetScientific, ref.Thresholds.Name)
	assert.Equal(t, "tiny", ref.Growth.Name)

	lo, hi, ok := ref.Growth.Bounds(cranial.SexMale, 3)
	require.True(t, ok)
	assert.InDelta(t, 350, lo, 1e-9)
	assert.InDelta(t, 420, hi, 1e-9)
}
