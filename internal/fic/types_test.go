package fic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent_UnmarshalAcceptsMixedWireShapes(t *testing.T) {
	var doc struct {
		A Percent `json:"a"`
		B Percent `json:"b"`
		C Percent `json:"c"`
		D Percent `json:"d"`
	}
	raw := `{"a": 12.5, "b": "12,5%", "c": null, "d": "0.125"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, Percent("12.5"), doc.A)
	assert.Equal(t, Percent("12,5%"), doc.B)
	assert.Equal(t, Percent(""), doc.C)
	assert.Equal(t, Percent("0.125"), doc.D)
}

func TestPercent_Fraction(t *testing.T) {
	tests := []struct {
		in   Percent
		want float64
	}{
		{"12,5%", 0.125},
		{"12.5 %", 0.125},
		{"12.5", 0.125},  // bare number above 1 reads as a percentage
		{"0.125", 0.125}, // already fractional
		{"-3,2%", -0.032},
		{"100%", 1.0},
		{"1", 0.01},
	}
	for _, tt := range tests {
		got, err := tt.in.Fraction()
		require.NoError(t, err, "input %q", tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, "input %q", tt.in)
	}

	_, err := Percent("").Fraction()
	assert.Error(t, err)
	_, err = Percent("n/a").Fraction()
	assert.Error(t, err)
}

func TestPercent_Number(t *testing.T) {
	got, err := Percent("1.234,56").Number()
	// A doubled separator cannot parse; the caller treats it as a warning.
	assert.Error(t, err)
	assert.Zero(t, got)

	got, err = Percent("98452,75").Number()
	require.NoError(t, err)
	assert.InDelta(t, 98452.75, got, 1e-9)
}

func TestRawBreakdown_DecodesVaryingLabelKeys(t *testing.T) {
	raw := `[
		{"activo": "CDT", "participacion": "45,2%"},
		{"sector": "Financiero", "participacion": 30.1},
		{"plazo": "0-30 dias", "participacion": null}
	]`
	var items []RawBreakdown
	require.NoError(t, json.Unmarshal([]byte(raw), &items))

	require.Len(t, items, 3)
	assert.Equal(t, "CDT", items[0].Label)
	assert.Equal(t, Percent("45,2%"), items[0].Participacion)
	assert.Equal(t, "Financiero", items[1].Label)
	assert.Equal(t, Percent("30.1"), items[1].Participacion)
	assert.Equal(t, "0-30 dias", items[2].Label)
	assert.Equal(t, Percent(""), items[2].Participacion)
}

func TestRawDocument_DecodesFullPayload(t *testing.T) {
	raw := `{
		"fic": {"nombre_fic": "FIC Prueba", "gestor": "Fiduciaria X", "custodio": "Banco Y", "fecha_corte": "2025-06-30"},
		"plazo_duracion": [{"plazo": "0-30", "participacion": "10%"}],
		"composicion_portafolio": {
			"por_activo": [{"activo": "CDT", "participacion": "45%"}],
			"por_moneda": [{"moneda": "COP", "participacion": "100%"}]
		},
		"caracteristicas": {"tipo": "Abierto", "valor": "98452,75", "no_unidades_en_circulacion": 1000},
		"calificacion": {"calificacion": "AAA", "entidad_calificadora": "Fitch"},
		"principales_inversiones": [{"emisor": "Banco Z", "participacion": "7,5%"}],
		"rentabilidad_volatilidad": [{
			"tipo_de_participacion": "Clase A",
			"rentabilidad_historica_ea": {"ultimo_mes": "8,1%", "ultimo_anio": 9.3},
			"volatilidad_historica": {"ultimo_mes": "0,5%"}
		}]
	}`
	var doc RawDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "FIC Prueba", doc.FIC.NombreFIC)
	require.Len(t, doc.Composicion.PorActivo, 1)
	assert.Equal(t, "CDT", doc.Composicion.PorActivo[0].Label)
	require.Len(t, doc.Rentabilidad, 1)
	assert.Equal(t, Percent("8,1%"), doc.Rentabilidad[0].Rentabilidad.UltimoMes)
	assert.Equal(t, Percent("9.3"), doc.Rentabilidad[0].Rentabilidad.UltimoAnio)
}
