package fic

// BuildRawSchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map for the structuring service's output. It is deliberately tolerant about
// value types (percentages arrive as strings or numbers) and strict about
// the document skeleton, so a malformed response fails at the extract edge
// instead of deep inside transform.
func BuildRawSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"fic"},
		"properties": map[string]any{
			"fic": map[string]any{
				"type":     "object",
				"required": []string{"nombre_fic", "gestor"},
				"properties": map[string]any{
					"nombre_fic":            map[string]any{"type": "string", "minLength": 1},
					"gestor":                map[string]any{"type": "string", "minLength": 1},
					"custodio":              nullableString(),
					"fecha_corte":           nullableString(),
					"politica_de_inversion": nullableString(),
				},
			},
			"plazo_duracion":          breakdownArray("plazo"),
			"composicion_portafolio":  map[string]any{"type": "object"},
			"caracteristicas":         map[string]any{"type": "object"},
			"calificacion":            map[string]any{"type": "object"},
			"principales_inversiones": breakdownArray("emisor"),
			"rentabilidad_volatilidad": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "object"},
			},
		},
	}
}

// BuildFundSchema returns the schema for a normalized fund record. This is
// the contract the load stage trusts: fractional participations, date-shaped
// strings, required identity fields.
func BuildFundSchema() map[string]any {
	share := map[string]any{
		"type":     "object",
		"required": []string{"label"},
		"properties": map[string]any{
			"label":         map[string]any{"type": "string"},
			"participacion": fractionProp(),
		},
	}
	windows := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ultimo_mes":      fractionProp(),
			"ultimos_6_meses": fractionProp(),
			"anio_corrido":    fractionProp(),
			"ultimo_anio":     fractionProp(),
			"ultimos_2_anios": fractionProp(),
			"ultimos_3_anios": fractionProp(),
		},
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"fic"},
		"properties": map[string]any{
			"fic": map[string]any{
				"type":     "object",
				"required": []string{"nombre_fic", "gestor", "fecha_corte"},
				"properties": map[string]any{
					"nombre_fic":  map[string]any{"type": "string", "minLength": 1},
					"gestor":      map[string]any{"type": "string", "minLength": 1},
					"fecha_corte": dateProp(),
				},
			},
			"plazo_duracion": map[string]any{"type": "array", "items": share},
			"composicion_portafolio": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "array", "items": share,
				},
			},
			"calificacion": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"fecha_ultima_calificacion": dateProp(),
				},
			},
			"principales_inversiones": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"emisor"},
					"properties": map[string]any{
						"emisor":        map[string]any{"type": "string"},
						"participacion": fractionProp(),
					},
				},
			},
			"rentabilidad_volatilidad": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"tipo_de_participacion"},
					"properties": map[string]any{
						"tipo_de_participacion":     map[string]any{"type": "string"},
						"rentabilidad_historica_ea": windows,
						"volatilidad_historica":     windows,
					},
				},
			},
		},
	}
}

func nullableString() map[string]any {
	return map[string]any{"type": []string{"string", "null"}}
}

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
}

func fractionProp() map[string]any {
	return map[string]any{"type": "number", "minimum": -1.0, "maximum": 1.0}
}

func breakdownArray(labelKey string) map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				labelKey: nullableString(),
			},
		},
	}
}
