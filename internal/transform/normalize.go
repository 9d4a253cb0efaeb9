// Package transform implements the second pipeline stage: raw factsheet JSON
// in, normalized fund record out.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/ficlab/fic-etl/constants"
	"github.com/ficlab/fic-etl/internal/fic"
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02", "02-01-2006"}

// normalizeDate coerces the date spellings seen in factsheets to YYYY-MM-DD.
// Returns "" when the input is empty or unrecognizable.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// Normalize converts a raw document into a fund record: percentage tokens
// become fractional floats, dates become YYYY-MM-DD, the rating agency name
// is canonicalized. Breakdown entries whose participation cannot be parsed
// are dropped and reported as warnings rather than failing the whole item.
func Normalize(raw *fic.RawDocument) (*fic.FundRecord, []string, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("nil raw document")
	}
	var warns []string

	shares := func(section string, in []fic.RawBreakdown) []fic.Share {
		var out []fic.Share
		for _, b := range in {
			label := strings.TrimSpace(b.Label)
			if label == "" && b.Participacion == "" {
				continue
			}
			frac := 0.0
			if b.Participacion != "" {
				v, err := b.Participacion.Fraction()
				if err != nil {
					warns = append(warns, fmt.Sprintf("%s: dropped %q: %v", section, label, err))
					continue
				}
				frac = v
			}
			out = append(out, fic.Share{Label: label, Participacion: frac})
		}
		return out
	}

	number := func(section string, p fic.Percent) float64 {
		if p == "" {
			return 0
		}
		v, err := p.Number()
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", section, err))
			return 0
		}
		return v
	}

	fraction := func(section string, p fic.Percent) float64 {
		if p == "" {
			return 0
		}
		v, err := p.Fraction()
		if err != nil {
			warns = append(warns, fmt.Sprintf("%s: %v", section, err))
			return 0
		}
		return v
	}

	windows := func(section string, w fic.RawWindows) fic.Windows {
		return fic.Windows{
			UltimoMes:     fraction(section+".ultimo_mes", w.UltimoMes),
			Ultimos6Meses: fraction(section+".ultimos_6_meses", w.Ultimos6Meses),
			AnioCorrido:   fraction(section+".anio_corrido", w.AnioCorrido),
			UltimoAnio:    fraction(section+".ultimo_anio", w.UltimoAnio),
			Ultimos2Anios: fraction(section+".ultimos_2_anios", w.Ultimos2Anios),
			Ultimos3Anios: fraction(section+".ultimos_3_anios", w.Ultimos3Anios),
		}
	}

	rec := &fic.FundRecord{
		FIC: fic.Header{
			NombreFIC:  strings.TrimSpace(raw.FIC.NombreFIC),
			Gestor:     strings.TrimSpace(raw.FIC.Gestor),
			Custodio:   strings.TrimSpace(raw.FIC.Custodio),
			FechaCorte: normalizeDate(raw.FIC.FechaCorte),
			Politica:   strings.TrimSpace(raw.FIC.Politica),
		},
		PlazoDuracion: shares("plazo_duracion", raw.PlazoDuracion),
		Composicion: fic.Composicion{
			PorActivo:          shares("por_activo", raw.Composicion.PorActivo),
			PorTipoDeRenta:     shares("por_tipo_de_renta", raw.Composicion.PorTipoDeRenta),
			PorSectorEconomico: shares("por_sector_economico", raw.Composicion.PorSectorEconomico),
			PorPaisEmisor:      shares("por_pais_emisor", raw.Composicion.PorPaisEmisor),
			PorMoneda:          shares("por_moneda", raw.Composicion.PorMoneda),
			PorCalificacion:    shares("por_calificacion", raw.Composicion.PorCalificacion),
		},
		Caract: fic.Caract{
			Tipo:                   strings.TrimSpace(raw.Caract.Tipo),
			Valor:                  number("caracteristicas.valor", raw.Caract.Valor),
			FechaInicioOperaciones: normalizeDate(raw.Caract.FechaInicioOperaciones),
			UnidadesEnCirculacion:  number("caracteristicas.no_unidades_en_circulacion", raw.Caract.UnidadesEnCirculacion),
		},
	}

	if raw.Calificacion.Calificacion != "" || raw.Calificacion.EntidadCalificadora != "" {
		agency, known := constants.CanonicalizeAgency(raw.Calificacion.EntidadCalificadora)
		if !known && raw.Calificacion.EntidadCalificadora != "" {
			warns = append(warns, fmt.Sprintf("calificacion: unknown agency %q", raw.Calificacion.EntidadCalificadora))
		}
		rec.Calificacion = fic.Calificacion{
			Calificacion:            strings.TrimSpace(raw.Calificacion.Calificacion),
			FechaUltimaCalificacion: normalizeDate(raw.Calificacion.FechaUltimaCalificacion),
			EntidadCalificadora:     strings.TrimSpace(raw.Calificacion.EntidadCalificadora),
			EntidadNormalizada:      string(agency),
		}
	}

	for _, inv := range raw.Inversiones {
		emisor := strings.TrimSpace(inv.Emisor)
		if emisor == "" {
			continue
		}
		frac := 0.0
		if inv.Participacion != "" {
			v, err := inv.Participacion.Fraction()
			if err != nil {
				warns = append(warns, fmt.Sprintf("principales_inversiones: dropped %q: %v", emisor, err))
				continue
			}
			frac = v
		}
		rec.Inversiones = append(rec.Inversiones, fic.Inversion{Emisor: emisor, Participacion: frac})
	}

	for _, rv := range raw.Rentabilidad {
		tipo := strings.TrimSpace(rv.TipoDeParticipacion)
		if tipo == "" {
			continue
		}
		rec.Rentabilidad = append(rec.Rentabilidad, fic.Rentabilidad{
			TipoDeParticipacion: tipo,
			Rentabilidad:        windows("rentabilidad_historica_ea", rv.Rentabilidad),
			Volatilidad:         windows("volatilidad_historica", rv.Volatilidad),
		})
	}

	return rec, warns, nil
}
