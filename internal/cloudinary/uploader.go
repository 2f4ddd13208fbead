package cloudinary

import (
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// UploadResult mirrors the fields of the Cloudinary upload response that the
// scan flow consumes.
type UploadResult struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

type Uploader struct {
	cloudName string
	apiKey    string
	apiSecret string
	http      *http.Client
}

func NewUploader(cloudName, apiKey, apiSecret string) *Uploader {
	return &Uploader{
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (u *Uploader) Enabled() bool {
	return u.cloudName != "" && u.apiKey != "" && u.apiSecret != ""
}

// UploadImage pushes image bytes to Cloudinary using a signed upload and
// returns the hosted URL metadata.
func (u *Uploader) UploadImage(data []byte, filename, folder string) (*UploadResult, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	signature := u.sign(folder, timestamp)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	_ = writer.WriteField("api_key", u.apiKey)
	_ = writer.WriteField("timestamp", timestamp)
	_ = writer.WriteField("signature", signature)
	if folder != "" {
		_ = writer.WriteField("folder", folder)
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://api.cloudinary.com/v1_1/%s/image/upload", u.cloudName)
	req, err := http.NewRequest(http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Cloudinary upload failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Cloudinary upload failed: status %d", resp.StatusCode)
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode Cloudinary response: %w", err)
	}
	return &result, nil
}

// sign builds the SHA-1 API signature over the sorted upload parameters.
func (u *Uploader) sign(folder, timestamp string) string {
	toSign := ""
	if folder != "" {
		toSign += "folder=" + folder + "&"
	}
	toSign += "timestamp=" + timestamp + u.apiSecret
	return fmt.Sprintf("%x", sha1.Sum([]byte(toSign)))
}
