package utils

import (
	"bytes"
	"encoding/json"
	"log/slog"

	"github.com/spacesedan/sentimas/internal/models"
)

func SerializeToJSON(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("[KafkaUtils] Failed to serialize JSON",
			slog.String("error", err.Error()))
		return nil, err
	}
	return data, nil
}

// DeserializeComments accepts either one comment object or an array of them.
func DeserializeComments(data []byte) ([]models.RawComment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var comments []models.RawComment
		if err := json.Unmarshal(trimmed, &comments); err != nil {
			return nil, err
		}
		return comments, nil
	}

	var comment models.RawComment
	if err := json.Unmarshal(trimmed, &comment); err != nil {
		return nil, err
	}
	return []models.RawComment{comment}, nil
}

func HandleConsumerError(err error) {
	if err == nil {
		return
	}
	slog.Error("[KafkaUtils] Kafka Consumer Error",
		slog.String("error", err.Error()))
}
