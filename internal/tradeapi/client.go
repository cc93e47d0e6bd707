package tradeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/tobenna/launchpad/internal/models"
)

// Client talks to the external transaction generation service. The service
// turns intents into unsigned wire transactions, one payload per intent in
// the same order, base58-encoded. That encoding is the whole wire contract;
// any other response shape is an error.
type Client struct {
	generateURL string
	uploadURL   string
	http        *http.Client
}

func NewClient(generateURL, uploadURL string) *Client {
	return &Client{
		generateURL: generateURL,
		uploadURL:   uploadURL,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate requests unsigned transactions for the given intents.
func (c *Client) Generate(ctx context.Context, intents []models.TransactionIntent) ([]string, error) {
	if len(intents) == 0 {
		return nil, errors.New("no intents to generate")
	}

	body, err := json.Marshal(intents)
	if err != nil {
		return nil, fmt.Errorf("marshal intents: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate transactions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generate transactions: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var payloads []string
	if err := json.NewDecoder(resp.Body).Decode(&payloads); err != nil {
		return nil, fmt.Errorf("decode generated transactions: %w", err)
	}
	if len(payloads) != len(intents) {
		return nil, fmt.Errorf("generation service returned %d transactions for %d intents", len(payloads), len(intents))
	}
	return payloads, nil
}

// MetadataUpload describes the asset identity to pin.
type MetadataUpload struct {
	Name        string
	Symbol      string
	Description string
	Twitter     string
	Telegram    string
	Website     string
	ImageName   string
	Image       []byte
}

// UploadMetadata pins token metadata and returns the metadata URI embedded
// into the creation transaction.
func (c *Client) UploadMetadata(ctx context.Context, upload MetadataUpload) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	if len(upload.Image) > 0 {
		part, err := form.CreateFormFile("file", upload.ImageName)
		if err != nil {
			return "", fmt.Errorf("build upload form: %w", err)
		}
		if _, err := part.Write(upload.Image); err != nil {
			return "", fmt.Errorf("write image to form: %w", err)
		}
	}
	fields := map[string]string{
		"name":        upload.Name,
		"symbol":      upload.Symbol,
		"description": upload.Description,
		"twitter":     upload.Twitter,
		"telegram":    upload.Telegram,
		"website":     upload.Website,
		"showName":    "true",
	}
	for key, value := range fields {
		if err := form.WriteField(key, value); err != nil {
			return "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload metadata: status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	var parsed struct {
		MetadataURI string `json:"metadataUri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if parsed.MetadataURI == "" {
		return "", errors.New("upload response missing metadataUri")
	}
	return parsed.MetadataURI, nil
}
