// Package mediastore загрузка изображений в Cloudinary по подписанному API.
package mediastore

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // алгоритм подписи Cloudinary
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/elearning-platform/internal/config"
)

const uploadTimeout = 30 * time.Second

// ErrNotConfigured возвращается, если не задан аккаунт Cloudinary.
var ErrNotConfigured = errors.New("cloudinary is not configured")

// Asset загруженный файл.
type Asset struct {
	PublicID string `json:"public_id"`
	URL      string `json:"secure_url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type Cloudinary struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewCloudinary(cfg config.Cloudinary) *Cloudinary {
	return &Cloudinary{
		cloudName:  cfg.CloudinaryCloudName,
		apiKey:     cfg.CloudinaryAPIKey,
		apiSecret:  cfg.CloudinaryAPISecret,
		baseURL:    strings.TrimRight(cfg.CloudinaryBaseURL, "/"),
		httpClient: &http.Client{Timeout: uploadTimeout},
		now:        time.Now,
	}
}

// Upload загружает изображение в папку folder.
func (c *Cloudinary) Upload(ctx context.Context, folder, filename string, file io.Reader) (*Asset, error) {
	const op = "mediastore.Upload"
	if c.cloudName == "" || c.apiKey == "" || c.apiSecret == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if folder != "" {
		params["folder"] = folder
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := w.WriteField("api_key", c.apiKey); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := w.WriteField("signature", Sign(params, c.apiSecret)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var asset Asset
	if err := c.send(req, &asset); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &asset, nil
}

func (c *Cloudinary) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr)
		return fmt.Errorf("cloudinary: status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Sign вычисляет подпись запроса: параметры по алфавиту через "&",
// затем секрет, хеш SHA-1 в hex.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
