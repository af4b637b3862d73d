package models

import "time"

// AnalysisRecord is a persisted analysis as returned by the storage layer.
type AnalysisRecord struct {
	ID           string      `json:"id" dynamodbav:"id"`
	Source       string      `json:"fuente" dynamodbav:"fuente"`
	OriginalText string      `json:"texto_original" dynamodbav:"texto_original"`
	Sentiment    Label       `json:"sentimiento" dynamodbav:"sentimiento"`
	Confidence   float64     `json:"confianza" dynamodbav:"confianza"`
	Scores       ClassScores `json:"scores_detallados" dynamodbav:"scores_detallados"`
	AnalyzedAt   time.Time   `json:"fecha_analisis" dynamodbav:"fecha_analisis"`
}

// Summary carries the aggregate figures shown on the dashboard.
type Summary struct {
	Total       int                      `json:"total"`
	Counts      map[Label]int            `json:"conteo"`
	Percentages map[Label]float64        `json:"porcentaje"`
	PerDay      map[string]map[Label]int `json:"por_dia"`
	BySource    map[string]map[Label]int `json:"por_fuente"`
}
