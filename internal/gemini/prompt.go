package gemini

// BasePrompt asks the model for a structured factsheet document. The JSON
// skeleton here is the wire contract that fic.BuildRawSchema validates; keep
// the two in sync.
const BasePrompt = `Eres un asistente experto en extraer información financiera de Fondos de Inversión Colectiva (FICs) en Colombia.
Recibirás como entrada texto plano extraído de un PDF que contiene la ficha técnica de un FIC.
Debes devolver un JSON estructurado con la información encontrada, siguiendo este esquema:

{
  "fic": {
    "nombre_fic": "",
    "gestor": "",
    "custodio": "",
    "fecha_corte": null,
    "politica_de_inversion": ""
  },

  "plazo_duracion": [
    {"plazo": "", "participacion": ""}
  ],

  "composicion_portafolio": {
    "por_activo": [
      {"activo": "", "participacion": ""}
    ],
    "por_tipo_de_renta": [
      {"tipo": "", "participacion": ""}
    ],
    "por_sector_economico": [
      {"sector": "", "participacion": ""}
    ],
    "por_pais_emisor": [
      {"pais": "", "participacion": ""}
    ],
    "por_moneda": [
      {"moneda": "", "participacion": ""}
    ],
    "por_calificacion": [
      {"calificacion": "", "participacion": ""}
    ]
  },

  "caracteristicas": {
    "tipo": "",
    "valor": "",
    "fecha_inicio_operaciones": null,
    "no_unidades_en_circulacion": ""
  },

  "calificacion": {
    "calificacion": "",
    "fecha_ultima_calificacion": null,
    "entidad_calificadora": ""
  },

  "principales_inversiones": [
    {"emisor": "", "participacion": ""}
  ],

  "rentabilidad_volatilidad": [
    {
      "tipo_de_participacion": "",
      "rentabilidad_historica_ea": {
        "ultimo_mes": "",
        "ultimos_6_meses": "",
        "anio_corrido": "",
        "ultimo_anio": "",
        "ultimos_2_anios": "",
        "ultimos_3_anios": ""
      },
      "volatilidad_historica": {
        "ultimo_mes": "",
        "ultimos_6_meses": "",
        "anio_corrido": "",
        "ultimo_anio": "",
        "ultimos_2_anios": "",
        "ultimos_3_anios": ""
      }
    }
  ]
}

Reglas:
- Si no encuentras un dato, deja el valor como "", 0.0, null, según corresponda.
- Mantén los números en el formato del json float en cada caso.
- Las fechas en formato YYYY-MM-DD.
- No inventes información, solo usa lo que aparece en el texto.

Texto a procesar:
`
