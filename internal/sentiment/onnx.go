package sentiment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/sentimas/internal/models"
)

// ONNXCapability runs a fine-tuned transformer classifier in-process through
// ONNX Runtime.
type ONNXCapability struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
}

// NewONNXCapability loads modelName from modelDir, downloading it from the
// Hugging Face hub on first use. The pipeline returns every class score,
// softmax-normalized.
func NewONNXCapability(modelName, modelDir string) (*ONNXCapability, error) {
	if modelName == "" {
		return nil, &InitializationError{Backend: "onnx", Err: errors.New("empty model name")}
	}

	modelPath, err := ensureModel(modelName, modelDir)
	if err != nil {
		return nil, &InitializationError{Backend: "onnx", Err: err}
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, &InitializationError{Backend: "onnx", Err: fmt.Errorf("creating ORT session: %w", err)}
	}

	config := hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "sentimentPipeline",
	}
	config.Options = append(config.Options, pipelines.WithMultiLabel(), pipelines.WithSoftmax())

	pipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		session.Destroy()
		return nil, &InitializationError{Backend: "onnx", Err: fmt.Errorf("loading pipeline: %w", err)}
	}

	return &ONNXCapability{session: session, pipeline: pipeline}, nil
}

func ensureModel(modelName, modelDir string) (string, error) {
	if err := os.MkdirAll(modelDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("creating model directory: %w", err)
	}

	// a local checkout takes precedence over the hub
	if info, err := os.Stat(modelName); err == nil && info.IsDir() {
		return modelName, nil
	}

	local := filepath.Join(modelDir, filepath.Base(modelName))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	path, err := hugot.DownloadModel(modelName, modelDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", modelName, err)
	}
	return path, nil
}

func (o *ONNXCapability) Classify(ctx context.Context, text string) ([]models.LabelScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	output, err := o.pipeline.RunPipeline([]string{truncateWords(text, maxInputWords)})
	if err != nil {
		return nil, fmt.Errorf("running pipeline: %w", err)
	}
	if len(output.ClassificationOutputs) == 0 {
		return nil, errors.New("pipeline returned no output")
	}

	scores := make([]models.LabelScore, 0, len(output.ClassificationOutputs[0]))
	for _, c := range output.ClassificationOutputs[0] {
		scores = append(scores, models.LabelScore{Label: c.Label, Score: float64(c.Score)})
	}
	return scores, nil
}

func (o *ONNXCapability) Close() error {
	return o.session.Destroy()
}
