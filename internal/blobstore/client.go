// Package blobstore реализует клиент удалённого объектного хранилища документов.
//
// Хранилище адресует объекты по имени, перезаписывает их целиком и отдаёт
// содержимое по URL, полученному из листинга. Клиент выполняет ровно одну
// попытку на операцию: повторы не входят в контракт тонкой прослойки
// персистентности, решение об откате или резерве принимает вызывающий.
package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/daniellaterapia/visit-tracker/internal/config"
)

// Object — элемент листинга хранилища.
type Object struct {
	Pathname string `json:"pathname"`
	URL      string `json:"url"`
}

// Client — HTTP-клиент объектного хранилища с bearer-авторизацией.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New создаёт клиент по настройкам из конфига.
func New(cfg config.BlobStore) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, rawurl string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawurl, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

// Put сохраняет объект под заданным именем, перезаписывая существующий.
// Возвращает URL, по которому объект доступен для чтения.
func (c *Client) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	const op = "blobstore.Put"
	req, err := c.newRequest(ctx, http.MethodPut, c.baseURL+"/"+url.PathEscape(name), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Allow-Overwrite", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var putResp struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&putResp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if putResp.URL == "" {
		return "", fmt.Errorf("%s: %w", op, errors.New("empty url in response"))
	}
	return putResp.URL, nil
}

// List возвращает объекты, имена которых начинаются с заданного префикса.
func (c *Client) List(ctx context.Context, prefix string) ([]Object, error) {
	const op = "blobstore.List"
	listURL := c.baseURL + "/"
	if prefix != "" {
		listURL += "?prefix=" + url.QueryEscape(prefix)
	}
	req, err := c.newRequest(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var listResp struct {
		Blobs []Object `json:"blobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return listResp.Blobs, nil
}

// Get скачивает содержимое объекта по URL из листинга. Метка времени в query
// обходит промежуточные кеши: читается всегда свежая версия документа.
func (c *Client) Get(ctx context.Context, objectURL string) ([]byte, error) {
	const op = "blobstore.Get"
	sep := "?"
	if strings.Contains(objectURL, "?") {
		sep = "&"
	}
	req, err := c.newRequest(ctx, http.MethodGet, objectURL+sep+fmt.Sprintf("t=%d", time.Now().UnixMilli()), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return body, nil
}
