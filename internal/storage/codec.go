package storage

import (
	"encoding/json"

	"symreg/internal/model"
)

func EncodeGenerationStats(stats []model.GenerationStats) ([]byte, error) {
	return json.Marshal(stats)
}

func DecodeGenerationStats(payload []byte) ([]model.GenerationStats, error) {
	var stats []model.GenerationStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

func EncodeExpressions(expressions []model.ExpressionRecord) ([]byte, error) {
	return json.Marshal(expressions)
}

func DecodeExpressions(payload []byte) ([]model.ExpressionRecord, error) {
	var expressions []model.ExpressionRecord
	if err := json.Unmarshal(payload, &expressions); err != nil {
		return nil, err
	}
	return expressions, nil
}
