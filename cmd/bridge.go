package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bernd/nexus/session"
)

// BridgeClient talks to the local assistant bridge over HTTP.
type BridgeClient struct {
	http     *http.Client // control endpoints
	exchange *http.Client // generous timeout, exchanges can take a while
	baseURL  string
}

func NewBridgeClient(baseURL string) *BridgeClient {
	return &BridgeClient{
		http:     &http.Client{Timeout: 5 * time.Second},
		exchange: &http.Client{Timeout: 120 * time.Second},
		baseURL:  baseURL,
	}
}

// ExchangeReply is the bridge's answer to one conversational exchange.
type ExchangeReply struct {
	Response       string              `json:"response"`
	Usage          session.UsageReport `json:"usage"`
	ToolExecutions []session.Execution `json:"tool_executions"`
}

// ToolEvent is a push-style tool lifecycle notification. Phase is either
// "executing" or "completed"; Success is only meaningful for "completed".
type ToolEvent struct {
	ID      uint64 `json:"id"`
	Phase   string `json:"phase"`
	Machine string `json:"machine"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// SendExchange posts one user message and blocks until the assistant's reply.
func (c *BridgeClient) SendExchange(text string) (*ExchangeReply, error) {
	body, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return nil, fmt.Errorf("marshal exchange: %w", err)
	}
	resp, err := c.exchange.Post(c.baseURL+"/exchange", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("POST /exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("POST /exchange: %s", resp.Status)
	}

	var reply ExchangeReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode exchange reply: %w", err)
	}
	return &reply, nil
}

// ActiveModel returns the bridge's currently active model ID.
func (c *BridgeClient) ActiveModel() (string, error) {
	var result struct {
		Model string `json:"model"`
	}
	if err := c.get("/model", &result); err != nil {
		return "", err
	}
	return result.Model, nil
}

// SetActiveModel asks the bridge to switch models. It returns the model that
// is active after the call: the requested one on success, or the re-queried
// previous one alongside the error when the bridge rejects the switch.
func (c *BridgeClient) SetActiveModel(id string) (string, error) {
	body, err := json.Marshal(map[string]string{"model": id})
	if err != nil {
		return "", fmt.Errorf("marshal model: %w", err)
	}
	req, err := http.NewRequest(http.MethodPut, c.baseURL+"/model", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("PUT /model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switchErr := fmt.Errorf("PUT /model: %s", resp.Status)
		active, qerr := c.ActiveModel()
		if qerr != nil {
			return "", switchErr
		}
		return active, switchErr
	}

	var result struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	return result.Model, nil
}

// ClearHistory drops the bridge's conversation history. Usage accounting on
// the bridge side is untouched.
func (c *BridgeClient) ClearHistory() error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+"/history", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("DELETE /history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("DELETE /history: %s", resp.Status)
	}
	return nil
}

// EventsAfter returns tool events with IDs greater than cursor.
func (c *BridgeClient) EventsAfter(cursor uint64) ([]ToolEvent, error) {
	var events []ToolEvent
	if err := c.get(fmt.Sprintf("/events?after=%d", cursor), &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *BridgeClient) get(path string, dest any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}
