// Package locale renders assessment results as human-readable text in the
// clinic's language.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ironsheep/cranial-tools-mcp/internal/cranial"
)

// Message keys double as the English format strings.
const (
	keyBelowRange   = "Estimated head circumference %d mm is below the expected range %d–%d mm for %.1f months. Verify the calibration."
	keyAboveRange   = "Estimated head circumference %d mm is above the expected range %d–%d mm for %.1f months. Verify the calibration."
	keyUnverifiable = "Estimated head circumference %d mm could not be checked against the growth reference."
	keySummary      = "%s (%s). Cranial index %.1f%%, CVAI %.1f%%, estimated circumference %d mm."
)

var shapeNames = map[cranial.Shape]string{
	cranial.ShapeNormal:        "Normal",
	cranial.ShapeBraquicefalia: "Brachycephaly",
	cranial.ShapeDolicocefalia: "Dolichocephaly",
	cranial.ShapePlagiocefalia: "Plagiocephaly",
	cranial.ShapeMisto:         "Mixed",
	cranial.ShapeIndeterminado: "Indeterminate",
}

var severityNames = map[cranial.Severity]string{
	cranial.SeverityNormal:        "normal",
	cranial.SeverityMild:          "mild",
	cranial.SeverityModerate:      "moderate",
	cranial.SeveritySevere:        "severe",
	cranial.SeverityIndeterminate: "indeterminate",
}

// ptMessages is the Brazilian Portuguese catalog, keyed by the English text.
var ptMessages = map[string]string{
	keyBelowRange:   "Perímetro cefálico estimado de %d mm está abaixo do intervalo esperado de %d–%d mm para %.1f meses. Verifique a calibração.",
	keyAboveRange:   "Perímetro cefálico estimado de %d mm está acima do intervalo esperado de %d–%d mm para %.1f meses. Verifique a calibração.",
	keyUnverifiable: "Perímetro cefálico estimado de %d mm não pôde ser comparado com a referência de crescimento.",
	keySummary:      "%s (%s). Índice craniano %.1f%%, CVAI %.1f%%, perímetro estimado %d mm.",

	"Normal":         "Normal",
	"Brachycephaly":  "Braquicefalia",
	"Dolichocephaly": "Dolicocefalia",
	"Plagiocephaly":  "Plagiocefalia",
	"Mixed":          "Misto",
	"Indeterminate":  "Indeterminado",

	"normal":        "normal",
	"mild":          "leve",
	"moderate":      "moderada",
	"severe":        "grave",
	"indeterminate": "indeterminada",
}

func init() {
	if err := loadCatalog(language.BrazilianPortuguese, ptMessages); err != nil {
		panic(err)
	}
}

// loadCatalog registers msgs with the default message catalog.
func loadCatalog(tag language.Tag, msgs map[string]string) error {
	for key, msg := range msgs {
		if err := message.SetString(tag, key, msg); err != nil {
			return fmt.Errorf("locale %s: message %q: %w", tag, key, err)
		}
	}
	return nil
}

// Printer renders results in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a Printer for a BCP 47 tag such as "en" or "pt-BR". Unknown
// or unsupported tags fall back to English.
func New(locale string) *Printer {
	tag := language.English
	if parsed, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		matcher := language.NewMatcher([]language.Tag{language.English, language.BrazilianPortuguese})
		_, idx, _ := matcher.Match(parsed)
		if idx == 1 {
			tag = language.BrazilianPortuguese
		}
	}
	return &Printer{tag: tag, p: message.NewPrinter(tag)}
}

// Tag returns the language in use.
func (p *Printer) Tag() language.Tag { return p.tag }

// Shape returns the display name of a shape.
func (p *Printer) Shape(s cranial.Shape) string {
	name, ok := shapeNames[s]
	if !ok {
		return string(s)
	}
	return p.p.Sprintf(name)
}

// Severity returns the display name of a severity.
func (p *Printer) Severity(s cranial.Severity) string {
	name, ok := severityNames[s]
	if !ok {
		return string(s)
	}
	return p.p.Sprintf(name)
}

// Flag renders a validation advisory. It returns "" for a nil flag.
func (p *Printer) Flag(f *cranial.ValidationFlag) string {
	if f == nil {
		return ""
	}
	value := int(f.ValueMM + 0.5)
	if f.Kind != cranial.FlagOutOfRange {
		return p.p.Sprintf(keyUnverifiable, value)
	}
	key := keyBelowRange
	if f.Direction == "above" {
		key = keyAboveRange
	}
	return p.p.Sprintf(key, value, int(f.LowerMM), int(f.UpperMM), f.AgeMonths)
}

// Summary renders a one-line description of an assessment.
func (p *Printer) Summary(a cranial.Assessment) string {
	c := a.Classification
	return p.p.Sprintf(keySummary,
		p.Shape(c.Type), p.Severity(c.Severity),
		a.Metrics.CranialIndex, a.Metrics.CVAI, a.Metrics.PerimetroMM)
}
