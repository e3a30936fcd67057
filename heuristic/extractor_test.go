package heuristic_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/carnet"
	"github.com/fwojciec/carnet/heuristic"
	"github.com/stretchr/testify/assert"
)

// labeledCard is the flattened text of a card page that kept its labels.
const labeledCard = "UNIVERSIDAD CATÓLICA BOLIVIANA CARNET UNIVERSITARIO " +
	"Nombre Completo: JUAN PEREZ GOMEZ Documento: 1234567 " +
	"Carrera: INGENIERIA DE SISTEMAS Correo: Juan.Perez@UCB.EDU.BO " +
	"Celular: 70012345 Periodo Académico: SEGUNDO SEMESTRE 2025"

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	e := heuristic.NewExtractor()

	t.Run("extracts every labeled field", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract(labeledCard)

		assert.Equal(t, carnet.Record{
			Name:     "JUAN PEREZ GOMEZ",
			Document: "1234567",
			Career:   "INGENIERIA DE SISTEMAS",
			Email:    "juan.perez@ucb.edu.bo",
			Phone:    "70012345",
			Period:   "SEGUNDO SEMESTRE 2025",
		}, rec)
	})

	t.Run("name label stops before following content", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Nombre Completo: JUAN PEREZ GOMEZ Carrera: DERECHO")

		assert.Equal(t, "JUAN PEREZ GOMEZ", rec.Name)
		assert.Equal(t, "DERECHO", rec.Career)
	})

	t.Run("infers name from position before document", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("CARNET UNIVERSITARIO JUAN PEREZ GOMEZ 1234567 INGENIERIA DE SISTEMAS SEGUNDO SEMESTRE 2025")

		assert.Equal(t, "1234567", rec.Document)
		assert.Equal(t, "JUAN PEREZ GOMEZ", rec.Name)
		assert.Equal(t, "INGENIERIA DE SISTEMAS", rec.Career)
		assert.Equal(t, "SEGUNDO SEMESTRE 2025", rec.Period)
		assert.Empty(t, rec.Phone)
	})

	t.Run("drops phone equal to document", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("JUAN PEREZ GOMEZ 1234567 Celular: 1234567")

		assert.Equal(t, "1234567", rec.Document)
		assert.Empty(t, rec.Phone)
	})

	t.Run("finds bare phone after document", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("ANA MARIA LOPEZ 7654321 71234567")

		assert.Equal(t, "ANA MARIA LOPEZ", rec.Name)
		assert.Equal(t, "7654321", rec.Document)
		assert.Equal(t, "71234567", rec.Phone)
	})

	t.Run("finds bare phone containing document digits", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("JUAN PEREZ GOMEZ 1234567 INGENIERIA 71234567")

		assert.Equal(t, "1234567", rec.Document)
		assert.Equal(t, "71234567", rec.Phone)
	})

	t.Run("finds bare phone with country code containing document digits", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("JUAN PEREZ GOMEZ 1234567 INGENIERIA DE SISTEMAS +591 71234567")

		assert.Equal(t, "+59171234567", rec.Phone)
	})

	t.Run("skips labeled phone when inferring document", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Celular 71234567 JUAN PEREZ GOMEZ 1234567")

		assert.Equal(t, "1234567", rec.Document)
		assert.Equal(t, "71234567", rec.Phone)
		assert.Equal(t, "JUAN PEREZ GOMEZ", rec.Name)
	})

	t.Run("skips phone label with country code when inferring document", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Teléfono: +591 71234567 ANA MARIA LOPEZ 7654321")

		assert.Equal(t, "7654321", rec.Document)
		assert.Equal(t, "ANA MARIA LOPEZ", rec.Name)
	})

	t.Run("keeps leading plus on labeled phone", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("JUAN PEREZ GOMEZ 1234567 Celular: +591 700-12345")

		assert.Equal(t, "+59170012345", rec.Phone)
	})

	t.Run("lowercases email", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Correo: Juan.Perez@UCB.EDU.BO")

		assert.Equal(t, "juan.perez@ucb.edu.bo", rec.Email)
	})

	t.Run("strips concatenated period label from career", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Carrera: INGENIERIA DE SISTEMASschoolPeriodo Académico: PRIMER SEMESTRE 2024")

		assert.Equal(t, "INGENIERIA DE SISTEMAS", rec.Career)
		assert.Equal(t, "PRIMER SEMESTRE 2024", rec.Period)
	})

	t.Run("truncates labeled name at career keyword", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Nombre: JUAN PEREZ INGENIERIA COMERCIAL")

		assert.Equal(t, "JUAN PEREZ", rec.Name)
	})

	t.Run("labeled name stops at mixed case prose", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Nombre Completo: JUAN PEREZ GOMEZ fue registrado hoy")

		assert.Equal(t, "JUAN PEREZ GOMEZ", rec.Name)
	})

	t.Run("labeled career stops at mixed case prose", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Carrera: DERECHO vigente hasta Diciembre")

		assert.Equal(t, "DERECHO", rec.Career)
	})

	t.Run("falls back to capitalized phrase for name", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Bienvenido al sistema Maria Lopez")

		assert.Equal(t, "Maria Lopez", rec.Name)
	})

	t.Run("uses period label when no semester phrase", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Periodo: 2-2025")

		assert.Equal(t, "2-2025", rec.Period)
	})

	t.Run("falls back to bare year for period", func(t *testing.T) {
		t.Parallel()

		rec := e.Extract("Gestión 2024")

		assert.Equal(t, "2024", rec.Period)
	})

	t.Run("returns empty record for empty input", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, carnet.Record{}, e.Extract(""))
		assert.Equal(t, carnet.Record{}, e.Extract(" \n\t  "))
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, e.Extract(labeledCard), e.Extract(labeledCard))
	})
}

func TestExtractor_NeedsRender(t *testing.T) {
	t.Parallel()

	e := heuristic.NewExtractor()

	assert.True(t, e.NeedsRender(""))
	assert.True(t, e.NeedsRender("Cargando..."))
	assert.True(t, e.NeedsRender(strings.Repeat(" ", 80)))
	assert.False(t, e.NeedsRender(labeledCard))
}

func TestExtractor_NeedsRender_CustomThreshold(t *testing.T) {
	t.Parallel()

	rules := heuristic.DefaultRules()
	rules.MinTextLength = 5
	e := heuristic.MustNew(rules)

	assert.True(t, e.NeedsRender("abc"))
	assert.False(t, e.NeedsRender("abcdef"))
}
