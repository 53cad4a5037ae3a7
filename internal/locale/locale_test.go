package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
)

func TestNew_Fallback(t *testing.T) {
	assert.Equal(t, language.English, New("").Tag())
	assert.Equal(t, language.English, New("fr").Tag())
	assert.Equal(t, language.English, New("not a tag!").Tag())
	assert.Equal(t, language.BrazilianPortuguese, New("pt-BR").Tag())
}

func TestPrinter_Names(t *testing.T) {
	en := New("en")
	pt := New("pt-BR")

	assert.Equal(t, "Plagiocephaly", en.Shape(cranial.ShapePlagiocefalia))
	assert.Equal(t, "Plagiocefalia", pt.Shape(cranial.ShapePlagiocefalia))
	assert.Equal(t, "moderate", en.Severity(cranial.SeverityModerate))
	assert.Equal(t, "moderada", pt.Severity(cranial.SeverityModerate))
	assert.Equal(t, "Custom", en.Shape(cranial.Shape("Custom")))
}

func TestPrinter_Flag(t *testing.T) {
	flag := cranial.CheckCircumference(350, 3, cranial.SexMale, nil)

	assert.Contains(t, New("en").Flag(flag), "below the expected range")
	assert.Contains(t, New("pt-BR").Flag(flag), "abaixo do intervalo esperado")
	assert.Contains(t, New("en").Flag(cranial.CheckCircumference(350, 40, cranial.SexMale, nil)), "could not be checked")
	assert.Empty(t, New("en").Flag(nil))
}

func TestPrinter_Summary(t *testing.T) {
	m, err := cranial.ComputeIndices(cranial.RawDistances{ComprimentoMM: 180, LarguraMM: 144, DiagonalDMM: 190, DiagonalEMM: 178})
	assert.NoError(t, err)
	a := cranial.Assessment{
		Metrics:        m.Display(),
		Classification: cranial.Classify(m.CranialIndex, m.CVAI, nil),
	}

	en := New("en").Summary(a)
	assert.Contains(t, en, "Plagiocephaly (moderate)")
	assert.Contains(t, en, "512 mm")

	pt := New("pt-BR").Summary(a)
	assert.Contains(t, pt, "Plagiocefalia (moderada)")
}

func TestLoadCatalog(t *testing.T) {
	assert.NoError(t, loadCatalog(language.BrazilianPortuguese, ptMessages))

	pt := New("pt-BR")
	for shape, name := range shapeNames {
		assert.Equal(t, ptMessages[name], pt.Shape(shape), "shape %s", shape)
	}
	for sev, name := range severityNames {
		assert.Equal(t, ptMessages[name], pt.Severity(sev), "severity %s", sev)
	}
}
