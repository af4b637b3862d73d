package sentiment

import (
	"fmt"
	"time"

	"github.com/spacesedan/sentimas/internal/clients"
)

const (
	BackendONNX    = "onnx"
	BackendRemote  = "remote"
	BackendLexicon = "lexicon"
	BackendOpenAI  = "openai"
)

type BackendConfig struct {
	Backend string

	// onnx
	ModelName string
	ModelDir  string

	// remote
	Endpoint string
	Timeout  time.Duration

	// openai
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

// NewCapability builds the one capability instance the process uses.
func NewCapability(cfg BackendConfig) (Capability, error) {
	switch cfg.Backend {
	case BackendONNX, "":
		return NewONNXCapability(cfg.ModelName, cfg.ModelDir)
	case BackendRemote:
		return NewRemoteCapability(clients.NewHuggingFaceClient(cfg.Endpoint, cfg.Timeout))
	case BackendLexicon:
		return NewLexiconCapability(), nil
	case BackendOpenAI:
		client, err := clients.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, &InitializationError{Backend: BackendOpenAI, Err: err}
		}
		return NewOpenAICapability(client.Client, cfg.OpenAIModel)
	}
	return nil, &InitializationError{Err: fmt.Errorf("unknown backend %q", cfg.Backend)}
}
