package sentiment

import (
	"context"
	"errors"

	"github.com/spacesedan/sentimas/internal/clients"
	"github.com/spacesedan/sentimas/internal/models"
)

// RemoteCapability delegates classification to a hosted inference endpoint.
type RemoteCapability struct {
	client *clients.HuggingFaceClient
}

func NewRemoteCapability(client *clients.HuggingFaceClient) (*RemoteCapability, error) {
	if client == nil {
		return nil, &InitializationError{Backend: "remote", Err: errors.New("nil inference client")}
	}
	return &RemoteCapability{client: client}, nil
}

func (r *RemoteCapability) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	return r.client.ClassifySentiment(ctx, truncateWords(text, maxInputWords))
}
