package gateway

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Client is a session against the provider's reference-data gateway. The
// wire is a request/response stream of JSON lines: one batched request, then
// partial events drained until the terminal response.
type Client struct {
	host   string
	port   int
	logger *zap.Logger

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewClient builds an unconnected session client.
func NewClient(host string, port int, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{host: host, port: port, logger: logger}
}

// Connect establishes the session. It returns false on any failure and
// never panics or errors; there is no automatic retry.
func (c *Client) Connect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return true
	}

	addr := net.JoinHostPort(c.host, fmt.Sprintf("%d", c.port))
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		c.logger.Warn("gateway connect failed", zap.String("addr", addr), zap.Error(err))
		return false
	}

	c.conn = conn
	c.reader = bufio.NewReader(conn)
	c.logger.Info("gateway session open", zap.String("addr", addr))
	return true
}

// Close tears the session down. Safe to call repeatedly or with no session.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

type refDataRequest struct {
	Type       string   `json:"type"`
	Securities []string `json:"securities"`
	Fields     []string `json:"fields"`
}

type refDataEvent struct {
	Type       string `json:"type"`
	Securities []struct {
		Security string            `json:"security"`
		Fields   map[string]string `json:"fields"`
	} `json:"securities"`
}

// Fetch issues one batched reference-data request for all securities and
// fields, then drains partial events until the terminal response arrives,
// accumulating raw string values per security and field.
func (c *Client) Fetch(securities []string, fields []string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("no active gateway session")
	}

	request := refDataRequest{
		Type:       "refdata",
		Securities: securities,
		Fields:     fields,
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	result := make(Result, len(securities))
	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		var event refDataEvent
		if err := json.Unmarshal(line, &event); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}

		for _, security := range event.Securities {
			for field, value := range security.Fields {
				result.Set(security.Security, field, value)
			}
		}

		if event.Type == "response" {
			return result, nil
		}
	}
}
