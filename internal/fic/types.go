// Package fic defines the document shapes exchanged between pipeline stages:
// the raw factsheet as the structuring service emits it, and the normalized
// record the load stage persists. Field names carry the upstream wire tags.
package fic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Percent is a percentage as it appears in a raw document: the model is asked
// for floats but real responses mix numbers, "12,5%", "12.5 %" and null.
// It keeps the raw token and defers parsing to the transform stage.
type Percent string

func (p *Percent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = Percent(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = Percent(n.String())
	return nil
}

func (p Percent) MarshalJSON() ([]byte, error) {
	if p == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(p))
}

// Fraction parses the token into a fractional value: "12,5%" -> 0.125.
// Bare numbers above 1 are treated as percentages, numbers in [0,1] as
// already-fractional.
func (p Percent) Fraction() (float64, error) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0, fmt.Errorf("empty percentage")
	}
	hadSign := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse percentage %q: %w", string(p), err)
	}
	if hadSign || v > 1 || v < -1 {
		return v / 100, nil
	}
	return v, nil
}

// Number parses the token as a plain number, without percent semantics.
// Used for magnitudes like fund value and units in circulation.
func (p Percent) Number() (float64, error) {
	s := strings.TrimSpace(string(p))
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", string(p), err)
	}
	return v, nil
}

// RawDocument is the structuring service's output for one factsheet.
type RawDocument struct {
	FIC           RawHeader         `json:"fic"`
	PlazoDuracion []RawBreakdown    `json:"plazo_duracion"`
	Composicion   RawComposicion    `json:"composicion_portafolio"`
	Caract        RawCaract         `json:"caracteristicas"`
	Calificacion  RawCalificacion   `json:"calificacion"`
	Inversiones   []RawInversion    `json:"principales_inversiones"`
	Rentabilidad  []RawRentabilidad `json:"rentabilidad_volatilidad"`
}

type RawHeader struct {
	NombreFIC  string `json:"nombre_fic"`
	Gestor     string `json:"gestor"`
	Custodio   string `json:"custodio"`
	FechaCorte string `json:"fecha_corte"`
	Politica   string `json:"politica_de_inversion"`
}

// RawBreakdown is one labeled share of a portfolio breakdown. The label key
// varies per breakdown on the wire (activo, tipo, sector, pais, moneda,
// calificacion, plazo); all of them decode into Label.
type RawBreakdown struct {
	Label         string  `json:"-"`
	Participacion Percent `json:"participacion"`
}

var breakdownLabelKeys = []string{"activo", "tipo", "sector", "pais", "moneda", "calificacion", "plazo"}

func (b *RawBreakdown) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if raw, ok := m["participacion"]; ok {
		if err := b.Participacion.UnmarshalJSON(raw); err != nil {
			return err
		}
	}
	for _, k := range breakdownLabelKeys {
		raw, ok := m[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		b.Label = s
		return nil
	}
	return nil
}

type RawComposicion struct {
	PorActivo          []RawBreakdown `json:"por_activo"`
	PorTipoDeRenta     []RawBreakdown `json:"por_tipo_de_renta"`
	PorSectorEconomico []RawBreakdown `json:"por_sector_economico"`
	PorPaisEmisor      []RawBreakdown `json:"por_pais_emisor"`
	PorMoneda          []RawBreakdown `json:"por_moneda"`
	PorCalificacion    []RawBreakdown `json:"por_calificacion"`
}

type RawCaract struct {
	Tipo                   string  `json:"tipo"`
	Valor                  Percent `json:"valor"`
	FechaInicioOperaciones string  `json:"fecha_inicio_operaciones"`
	UnidadesEnCirculacion  Percent `json:"no_unidades_en_circulacion"`
}

type RawCalificacion struct {
	Calificacion            string `json:"calificacion"`
	FechaUltimaCalificacion string `json:"fecha_ultima_calificacion"`
	EntidadCalificadora     string `json:"entidad_calificadora"`
}

type RawInversion struct {
	Emisor        string  `json:"emisor"`
	Participacion Percent `json:"participacion"`
}

type RawWindows struct {
	UltimoMes     Percent `json:"ultimo_mes"`
	Ultimos6Meses Percent `json:"ultimos_6_meses"`
	AnioCorrido   Percent `json:"anio_corrido"`
	UltimoAnio    Percent `json:"ultimo_anio"`
	Ultimos2Anios Percent `json:"ultimos_2_anios"`
	Ultimos3Anios Percent `json:"ultimos_3_anios"`
}

type RawRentabilidad struct {
	TipoDeParticipacion string     `json:"tipo_de_participacion"`
	Rentabilidad        RawWindows `json:"rentabilidad_historica_ea"`
	Volatilidad         RawWindows `json:"volatilidad_historica"`
}

// FundRecord is the normalized form the load stage persists: percentages as
// fractional float64, dates as YYYY-MM-DD strings, agency names canonical.
type FundRecord struct {
	FIC           Header         `json:"fic"`
	PlazoDuracion []Share        `json:"plazo_duracion"`
	Composicion   Composicion    `json:"composicion_portafolio"`
	Caract        Caract         `json:"caracteristicas"`
	Calificacion  Calificacion   `json:"calificacion"`
	Inversiones   []Inversion    `json:"principales_inversiones"`
	Rentabilidad  []Rentabilidad `json:"rentabilidad_volatilidad"`
}

type Header struct {
	NombreFIC  string `json:"nombre_fic"`
	Gestor     string `json:"gestor"`
	Custodio   string `json:"custodio,omitempty"`
	FechaCorte string `json:"fecha_corte"`
	Politica   string `json:"politica_de_inversion,omitempty"`
}

// Share is one labeled fraction of a normalized breakdown.
type Share struct {
	Label         string  `json:"label"`
	Participacion float64 `json:"participacion"`
}

type Composicion struct {
	PorActivo          []Share `json:"por_activo,omitempty"`
	PorTipoDeRenta     []Share `json:"por_tipo_de_renta,omitempty"`
	PorSectorEconomico []Share `json:"por_sector_economico,omitempty"`
	PorPaisEmisor      []Share `json:"por_pais_emisor,omitempty"`
	PorMoneda          []Share `json:"por_moneda,omitempty"`
	PorCalificacion    []Share `json:"por_calificacion,omitempty"`
}

type Caract struct {
	Tipo                   string  `json:"tipo,omitempty"`
	Valor                  float64 `json:"valor,omitempty"`
	FechaInicioOperaciones string  `json:"fecha_inicio_operaciones,omitempty"`
	UnidadesEnCirculacion  float64 `json:"no_unidades_en_circulacion,omitempty"`
}

type Calificacion struct {
	Calificacion            string `json:"calificacion,omitempty"`
	FechaUltimaCalificacion string `json:"fecha_ultima_calificacion,omitempty"`
	EntidadCalificadora     string `json:"entidad_calificadora,omitempty"`
	EntidadNormalizada      string `json:"entidad_calificadora_normalizada,omitempty"`
}

type Inversion struct {
	Emisor        string  `json:"emisor"`
	Participacion float64 `json:"participacion"`
}

type Windows struct {
	UltimoMes     float64 `json:"ultimo_mes,omitempty"`
	Ultimos6Meses float64 `json:"ultimos_6_meses,omitempty"`
	AnioCorrido   float64 `json:"anio_corrido,omitempty"`
	UltimoAnio    float64 `json:"ultimo_anio,omitempty"`
	Ultimos2Anios float64 `json:"ultimos_2_anios,omitempty"`
	Ultimos3Anios float64 `json:"ultimos_3_anios,omitempty"`
}

type Rentabilidad struct {
	TipoDeParticipacion string  `json:"tipo_de_participacion"`
	Rentabilidad        Windows `json:"rentabilidad_historica_ea"`
	Volatilidad         Windows `json:"volatilidad_historica"`
}
