package slp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/sergeii/mcscan/pkg/binutils"
)

var (
	ErrConnect           = errors.New("failed to connect to server")
	ErrResponseMalformed = errors.New("response payload contains invalid data")
	ErrUnexpectedPacket  = errors.New("unexpected packet")
	ErrResponseTooLarge  = errors.New("response payload is too large")
)

const (
	DefaultPort = 25565

	// AnyProtocol tells the server that the client does not care about the protocol version
	AnyProtocol = -1

	packetStatus   = 0x00
	nextStateQuery = 0x01

	maxPacketSize = 1 << 20
)

var Blank Response

type Conn struct {
	conn     net.Conn
	reader   *bufio.Reader
	host     string
	port     int
	protocol int32
}

type Option func(*Conn)

func WithProtocol(protocol int) Option {
	return func(c *Conn) {
		c.protocol = int32(protocol) // nolint: gosec
	}
}

// Dial establishes a TCP connection to a Minecraft server.
// The dial is bounded by the context's deadline, if any
func Dial(ctx context.Context, host string, port int, opts ...Option) (*Conn, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}
	c := &Conn{
		conn:     conn,
		reader:   bufio.NewReader(conn),
		host:     host,
		port:     port,
		protocol: AnyProtocol,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr is the resolved address of the server the connection is made to
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// Status performs the status exchange: a handshake with the next state set to status,
// followed by a status request. The exchange is abandoned as soon as ctx is done
func (c *Conn) Status(ctx context.Context) (Response, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if err := c.conn.SetDeadline(deadline); err != nil {
			return Blank, err
		}
	}

	closing := make(chan struct{})
	defer close(closing)

	go func() {
		select {
		case <-ctx.Done():
			c.conn.SetDeadline(time.Now()) // nolint: errcheck
		case <-closing:
		}
	}()

	if _, err := c.conn.Write(c.buildRequest()); err != nil {
		return Blank, err
	}

	payload, err := c.readResponse()
	if err != nil {
		return Blank, err
	}

	var resp Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		return Blank, fmt.Errorf("%w: %w", ErrResponseMalformed, err)
	}

	return resp, nil
}

func (c *Conn) buildRequest() []byte {
	handshake := binutils.AppendVarInt(nil, packetStatus)
	handshake = binutils.AppendVarInt(handshake, c.protocol)
	handshake = binutils.AppendString(handshake, c.host)
	handshake = binutils.AppendUint16(handshake, uint16(c.port)) // nolint: gosec
	handshake = binutils.AppendVarInt(handshake, nextStateQuery)

	req := binutils.AppendVarInt(nil, int32(len(handshake))) // nolint: gosec
	req = append(req, handshake...)
	// status request is an empty packet with id 0x00
	req = binutils.AppendVarInt(req, 1)
	req = binutils.AppendVarInt(req, packetStatus)
	return req
}

func (c *Conn) readResponse() ([]byte, error) {
	length, err := binutils.ReadVarInt(c.reader)
	if err != nil {
		return nil, wrapReadErr(err)
	}
	if length <= 0 {
		return nil, fmt.Errorf("%w: packet length %d", ErrResponseMalformed, length)
	}
	if length > maxPacketSize {
		return nil, fmt.Errorf("%w: packet length %d", ErrResponseTooLarge, length)
	}

	packet := make([]byte, length)
	if _, err = io.ReadFull(c.reader, packet); err != nil {
		return nil, wrapReadErr(err)
	}

	return parseStatusPacket(packet)
}

func parseStatusPacket(packet []byte) ([]byte, error) {
	r := bytes.NewReader(packet)
	packetID, err := binutils.ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: packet id: %w", ErrResponseMalformed, err)
	}
	if packetID != packetStatus {
		return nil, fmt.Errorf("%w: id %#x", ErrUnexpectedPacket, packetID)
	}

	strLen, err := binutils.ReadVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("%w: payload length: %w", ErrResponseMalformed, err)
	}
	if strLen < 0 || int(strLen) > r.Len() {
		return nil, fmt.Errorf("%w: payload length %d", ErrResponseMalformed, strLen)
	}

	payload := make([]byte, strLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrResponseMalformed, err)
	}

	return payload, nil
}

func wrapReadErr(err error) error {
	// a prematurely closed connection is a protocol violation rather than a network failure
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrResponseMalformed, err)
	}
	return err
}

// Query dials the server and performs a single status exchange within the timeout
func Query(ctx context.Context, host string, port int, timeout time.Duration, opts ...Option) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := Dial(ctx, host, port, opts...)
	if err != nil {
		return Blank, err
	}
	defer conn.Close() // nolint: errcheck

	return conn.Status(ctx)
}
