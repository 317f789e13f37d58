// Package client implements the socket transport of the SWARM RDS
// server. Every exchange is a JSON packet stream: a size header
// announcing the payload length, then the payload packet itself.
// Responses are matched to requests by message ID; unrelated packets
// carry status updates from the running simulation.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/codexlabs/swarm-rds-client/pkg/logger"
)

const (
	// DefaultPort is the port the simulation server listens on.
	DefaultPort = 5002

	packetSingular  = "Singular"
	packetMultipart = "Multipart"

	readBufferSize = 8192
)

// packet is the framing envelope of every message on the wire.
type packet struct {
	ID   int                    `json:"ID"`
	Type string                 `json:"Type"`
	Body map[string]interface{} `json:"Body"`
}

// Client is a connection to a SWARM RDS server.
type Client struct {
	address string
	timeout time.Duration
	license *License
	log     logger.Logger

	mu        sync.Mutex
	conn      net.Conn
	dec       *json.Decoder
	messageID int
}

// Config holds the configuration for the SWARM client
type Config struct {
	Host    string
	Port    int
	Timeout time.Duration
	License *License
}

// NewClient creates a new SWARM client with the given configuration
func NewClient(cfg Config) (*Client, error) {
	if cfg.License == nil {
		return nil, fmt.Errorf("a license is required to talk to the server")
	}
	if !cfg.License.Activated {
		return nil, fmt.Errorf("license %s has not been activated on this machine", cfg.License.Key)
	}

	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		address: fmt.Sprintf("%s:%d", host, port),
		timeout: timeout,
		license: cfg.License,
		log:     logger.Default().WithPrefix("client"),
	}, nil
}

// Connect dials the server. The server closes the connection after
// most commands, so callers reconnect before each one.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.address, err)
	}
	c.conn = conn
	c.dec = json.NewDecoder(conn)
	c.dec.UseNumber()
	c.log.Debugf("connected to %s", c.address)
	return nil
}

// Connected reports whether the client currently holds a connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close tears down the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.dec = nil
	return err
}

// send writes one request to the server: a size header announcing the
// payload, then the payload packet. The license key and machine ID
// ride along on every request body. Returns the message ID to wait on.
func (c *Client) send(body map[string]interface{}) (int, error) {
	if c.conn == nil {
		return 0, fmt.Errorf("client is not connected")
	}

	body["LicenseKey"] = c.license.Key
	body["MachineID"] = c.license.MachineID

	id := c.messageID
	payload, err := json.Marshal(packet{ID: id, Type: packetSingular, Body: body})
	if err != nil {
		return 0, fmt.Errorf("encoding request: %w", err)
	}
	header, err := json.Marshal(packet{
		ID:   id,
		Type: packetSingular,
		Body: map[string]interface{}{"Bytes": len(payload)},
	})
	if err != nil {
		return 0, fmt.Errorf("encoding header: %w", err)
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	if _, err := c.conn.Write(header); err != nil {
		return 0, fmt.Errorf("sending header: %w", err)
	}
	// The server reads the header and payload as separate packets.
	time.Sleep(50 * time.Millisecond)
	if _, err := c.conn.Write(payload); err != nil {
		return 0, fmt.Errorf("sending payload: %w", err)
	}
	c.messageID++
	return id, nil
}

// awaitPacket reads packets until one matches the message ID. Size
// headers are skipped; packets with other IDs are progress updates
// from the server and are logged, except critical errors which abort
// the wait.
func (c *Client) awaitPacket(ctx context.Context, id int) (map[string]interface{}, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var p packet
		if err := c.readPacket(&p); err != nil {
			return nil, err
		}
		if isSizeHeader(p.Body) {
			continue
		}
		if p.ID == id {
			return p.Body, nil
		}
		if status, ok := p.Body["Status"].(string); ok {
			c.log.Info(status)
		}
		if errValue, ok := p.Body["Error"].(string); ok && errValue == "Critical" {
			return nil, fmt.Errorf("server reported a critical error")
		}
	}
}

// awaitBytes reads the multipart announcement for the message ID and
// then drains the raw byte stream that follows it.
func (c *Client) awaitBytes(ctx context.Context, id int, description string) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var p packet
		if err := c.readPacket(&p); err != nil {
			return nil, err
		}
		if isSizeHeader(p.Body) {
			continue
		}
		if p.ID != id {
			if status, ok := p.Body["Status"].(string); ok {
				c.log.Info(status)
			}
			continue
		}
		if p.Type != packetMultipart {
			// A singular response instead of a transfer means the
			// server declined the request.
			if errValue, ok := p.Body["Error"].(string); ok {
				return nil, fmt.Errorf("server error: %s", errValue)
			}
			return nil, fmt.Errorf("expected a multipart transfer, got %q", p.Type)
		}
		return c.readMultipart(p, description)
	}
}

// readMultipart drains the raw byte stream announced by a multipart
// start packet.
func (c *Client) readMultipart(start packet, description string) ([]byte, error) {
	total, err := bodyInt(start.Body, "Number Of Bytes")
	if err != nil {
		return nil, err
	}
	c.log.Infof("downloading %d bytes", total)

	// The decoder may have buffered the first chunk of the stream.
	reader := io.MultiReader(c.dec.Buffered(), c.conn)
	bar := logger.NewProgressBar(total, description)
	data := make([]byte, 0, total)
	buf := make([]byte, readBufferSize)
	for len(data) < total {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return nil, err
		}
		n, err := reader.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			bar.Update(len(data))
		}
		// A Read may deliver the final bytes together with EOF.
		if err != nil && len(data) < total {
			return nil, fmt.Errorf("reading transfer: %w", err)
		}
	}
	bar.Finish()
	// The stream resumes with JSON packets after the raw bytes.
	c.dec = json.NewDecoder(reader)
	c.dec.UseNumber()
	return data[:total], nil
}

func (c *Client) readPacket(p *packet) error {
	if c.dec == nil {
		return fmt.Errorf("client is not connected")
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	if err := c.dec.Decode(p); err != nil {
		return fmt.Errorf("reading packet: %w", err)
	}
	return nil
}

// isSizeHeader reports whether a packet body is a size announcement
// rather than a response.
func isSizeHeader(body map[string]interface{}) bool {
	_, ok := body["Bytes"]
	return ok && len(body) == 1
}

func bodyInt(body map[string]interface{}, key string) (int, error) {
	switch n := body[key].(type) {
	case json.Number:
		v, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("field %q is not an integer: %w", key, err)
		}
		return int(v), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("field %q missing from packet body", key)
	}
}
