package scanning

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
)

// Vertex implements the Scanner interface using Gemini on Vertex AI.
// Credentials come from the environment (application default credentials).
type Vertex struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewVertex creates a new Vertex Scanner instance
func NewVertex(ctx context.Context, projectID, region, modelName string, timeout time.Duration) (*Vertex, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex project and region are required")
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("creating vertex client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &Vertex{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

// ReadReceipt sends the receipt image to Vertex AI and returns the text answer
func (v *Vertex) ReadReceipt(ctx context.Context, imageData []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	finalImageData, mimeType, err := prepareImageData(imageData, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: preparing image: %w", ErrInference, err)
	}

	resp, err := v.model.GenerateContent(ctx,
		genai.Text(receiptScanPrompt),
		genai.ImageData(imageFormat(mimeType), finalImageData),
	)
	if err != nil {
		return "", fmt.Errorf("%w: calling vertex ai: %w", ErrInference, err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no response from vertex ai", ErrInference)
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}
	if responseText.Len() == 0 {
		return "", fmt.Errorf("%w: vertex ai response has no text", ErrInference)
	}

	return responseText.String(), nil
}

// Close closes the Vertex AI client
func (v *Vertex) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}
