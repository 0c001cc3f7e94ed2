package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/siteforge/layout-optimizer/apis/layout/v1alpha1"
)

const testConfig = `
apiVersion: layout.siteforge.io/v1alpha1
kind: LayoutOptimization
metadata:
  name: corner-lot
spec:
  site:
    boundary:
    - {x: 0, y: 0}
    - {x: 120, y: 0}
    - {x: 120, y: 80}
    - {x: 0, y: 80}
  genotype:
    gridFields: 1
    radialFields: 1
    buildings: 3
  algorithm:
    populationSize: 8
    generations: 2
    partitions: 2
    workers: 2
  evaluator:
    buildingTypes:
    - {name: house, width: 10, depth: 8, cost: 60}
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunCommand(t *testing.T) {
	config := writeConfig(t, testConfig)
	dir := t.TempDir()
	out := filepath.Join(dir, "result.yaml")
	plot := filepath.Join(dir, "front.html")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"run", "--config", config, "--out", out, "--plot", plot, "--seed", "9"}, &stdout)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "corner-lot: 2 generations, 24 evaluations")
	assert.Contains(t, stdout.String(), "pareto front:")
	assert.FileExists(t, plot)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var result v1alpha1.OptimizationResult
	require.NoError(t, yaml.Unmarshal(data, &result))
	assert.Equal(t, v1alpha1.KindOptimizationResult, result.Kind)
	assert.Equal(t, 24, result.Evaluations)
	assert.NotEmpty(t, result.Solutions)
	assert.Equal(t, []string{"cost", "accessibility", "adjacency", "greenRatio"}, result.ObjectiveNames)
}

func TestRunCommandOverrides(t *testing.T) {
	config := writeConfig(t, testConfig)
	var stdout bytes.Buffer
	err := run(context.Background(), []string{"run", "-c", config, "--generations", "0"}, &stdout)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "0 generations, 8 evaluations")
}

func TestRunCommandInterrupted(t *testing.T) {
	config := writeConfig(t, testConfig)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout bytes.Buffer
	err := run(ctx, []string{"run", "-c", config}, &stdout)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, stdout.String(), "run interrupted")
}

func TestValidateCommand(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"validate", "-c", writeConfig(t, testConfig)}, &stdout))
	assert.Contains(t, stdout.String(), "corner-lot is valid")
	assert.Contains(t, stdout.String(), "(19 genes)")
	assert.Contains(t, stdout.String(), "24 evaluations")

	bad := writeConfig(t, testConfig+"    bogus: true\n")
	assert.Error(t, run(context.Background(), []string{"validate", "-c", bad}, &stdout))
}

func TestUsageErrors(t *testing.T) {
	var stdout bytes.Buffer
	assert.ErrorContains(t, run(context.Background(), nil, &stdout), "missing command")
	assert.ErrorContains(t, run(context.Background(), []string{"frobnicate"}, &stdout), "unknown command")
	assert.ErrorContains(t, run(context.Background(), []string{"run"}, &stdout), "--config is required")
}
