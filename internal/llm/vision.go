package llm

import (
	"context"
	"errors"

	werrors "github.com/mj1618/wingman/internal/errors"
)

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

// Vision temperature and token cap.
const (
	visionTemperature = 0.1
	visionMaxTokens   = 128
)

// Vision asks a multimodal model about a JPEG image. The compatible path is
// tried first with the image as a data URL; on any failure the native path
// is tried with the image attached to the message.
func (c *Client) Vision(ctx context.Context, prompt, jpegB64 string) (string, error) {
	parts := []visionMessage{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + jpegB64}},
		},
	}}
	resp, err := c.openAIRequest(ctx, chatRequest{
		Model:       c.opts.Model,
		Messages:    parts,
		Temperature: visionTemperature,
		MaxTokens:   visionMaxTokens,
	})
	if err == nil {
		return resp.Content, nil
	}
	c.logger.Debug("vision via compatible path failed, trying native", "error", err)

	native := []nativeMessage{{Role: "user", Content: prompt, Images: []string{jpegB64}}}
	resp, nerr := c.native(ctx, native, visionTemperature)
	if nerr != nil {
		return "", werrors.NewGenerationFailed(errors.Join(err, nerr))
	}
	return resp.Content, nil
}
