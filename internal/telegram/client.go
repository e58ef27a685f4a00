package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// MaxDocumentSize is the Bot API limit for a single uploaded document.
// Files are sent one by one, so this is the only size constraint.
const MaxDocumentSize = 50 * 1024 * 1024

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Chat represents the chat object returned by getChat.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// Message represents the message object returned by send calls.
type Message struct {
	MessageID int64 `json:"message_id"`
	Chat      Chat  `json:"chat"`
	Document  *struct {
		FileID   string `json:"file_id"`
		FileName string `json:"file_name,omitempty"`
		FileSize int64  `json:"file_size,omitempty"`
	} `json:"document,omitempty"`
}

// apiResponse is the Bot API envelope wrapping every result.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) methodURL(method string) string {
	return c.baseURL + "/bot" + c.token + "/" + method
}

// GetChat verifies the destination chat is reachable before any files are
// sent. A client that unlinked the bot or blocked it fails here.
func (c *Client) GetChat(chatID string) (*Chat, error) {
	reqBody, err := json.Marshal(map[string]string{"chat_id": chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.methodURL("getChat"), bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	if !envelope.OK {
		return nil, fmt.Errorf("failed to get chat: %s (code %d)", envelope.Description, envelope.ErrorCode)
	}

	var chat Chat
	if err := json.Unmarshal(envelope.Result, &chat); err != nil {
		return nil, fmt.Errorf("failed to decode chat: %w", err)
	}

	return &chat, nil
}

// SendDocument uploads one file as a Telegram document. The filename becomes
// the name the client sees, so it must carry the original name and extension.
func (c *Client) SendDocument(chatID, filename, caption string, data []byte) (*Message, error) {
	if int64(len(data)) > MaxDocumentSize {
		return nil, fmt.Errorf("file %s exceeds the %d byte document limit", filename, MaxDocumentSize)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", chatID); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequest("POST", c.methodURL("sendDocument"), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	if !envelope.OK {
		return nil, fmt.Errorf("failed to send document: %s (code %d)", envelope.Description, envelope.ErrorCode)
	}

	var message Message
	if err := json.Unmarshal(envelope.Result, &message); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	return &message, nil
}

// SendMessage sends a plain text message.
func (c *Client) SendMessage(chatID, text string) (*Message, error) {
	reqBody, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest("POST", c.methodURL("sendMessage"), bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}
	if !envelope.OK {
		return nil, fmt.Errorf("failed to send message: %s (code %d)", envelope.Description, envelope.ErrorCode)
	}

	var message Message
	if err := json.Unmarshal(envelope.Result, &message); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	return &message, nil
}
