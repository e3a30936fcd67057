package heuristic_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/carnet"
	"github.com/fwojciec/carnet/heuristic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadRules(t *testing.T) {
	t.Parallel()

	t.Run("overlays file on defaults", func(t *testing.T) {
		t.Parallel()

		path := writeRules(t, `
minTextLength: 10
nameDenylist: [FACULTAD]
labels:
  name: ["Estudiante"]
`)

		rules, err := heuristic.LoadRules(path)

		require.NoError(t, err)
		defaults := heuristic.DefaultRules()
		assert.Equal(t, 10, rules.MinTextLength)
		assert.Equal(t, heuristic.DefaultNameWindow, rules.NameWindow)
		assert.Equal(t, []string{"FACULTAD"}, rules.NameDenylist)
		assert.Equal(t, []string{"Estudiante"}, rules.Labels[carnet.FieldName])
		assert.Equal(t, defaults.Labels[carnet.FieldCareer], rules.Labels[carnet.FieldCareer])
		assert.Equal(t, defaults.Noise, rules.Noise)
	})

	t.Run("loaded rules drive extraction", func(t *testing.T) {
		t.Parallel()

		path := writeRules(t, `
labels:
  name: ["Estudiante"]
`)
		rules, err := heuristic.LoadRules(path)
		require.NoError(t, err)

		e, err := heuristic.New(rules)
		require.NoError(t, err)

		assert.Equal(t, "ANA ROJAS", e.Extract("Estudiante: ANA ROJAS Carrera: DERECHO").Name)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		path := writeRules(t, "minTextLength: [not a number")

		_, err := heuristic.LoadRules(path)

		assert.Equal(t, carnet.EINVALID, carnet.ErrorCode(err))
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := heuristic.LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestNew_InvalidRules(t *testing.T) {
	t.Parallel()

	t.Run("bad noise pattern", func(t *testing.T) {
		t.Parallel()

		rules := heuristic.DefaultRules()
		rules.Noise = append(rules.Noise, heuristic.Replacement{Pattern: `(unclosed`})

		_, err := heuristic.New(rules)

		assert.Equal(t, carnet.EINVALID, carnet.ErrorCode(err))
	})

	t.Run("bad label pattern", func(t *testing.T) {
		t.Parallel()

		rules := heuristic.DefaultRules()
		rules.Labels[carnet.FieldCareer] = []string{`[`}

		_, err := heuristic.New(rules)

		assert.Equal(t, carnet.EINVALID, carnet.ErrorCode(err))
	})

	t.Run("zero name window", func(t *testing.T) {
		t.Parallel()

		rules := heuristic.DefaultRules()
		rules.NameWindow = 0

		_, err := heuristic.New(rules)

		assert.Equal(t, carnet.EINVALID, carnet.ErrorCode(err))
	})

	t.Run("unknown label field", func(t *testing.T) {
		t.Parallel()

		rules := heuristic.DefaultRules()
		rules.Labels["nickname"] = []string{"Apodo"}

		_, err := heuristic.New(rules)

		assert.Equal(t, carnet.EINVALID, carnet.ErrorCode(err))
	})

	t.Run("MustNew panics", func(t *testing.T) {
		t.Parallel()

		rules := heuristic.DefaultRules()
		rules.NameWindow = -1

		assert.Panics(t, func() { heuristic.MustNew(rules) })
	})
}
