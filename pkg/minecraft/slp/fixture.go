package slp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/sergeii/mcscan/pkg/binutils"
	tcp "github.com/sergeii/mcscan/pkg/tcp/server"
)

type Handshake struct {
	Protocol  int32
	Host      string
	Port      uint16
	NextState int32
}

// ReadRequest reads the handshake and the following status request sent by a client
func ReadRequest(r io.Reader) (Handshake, error) {
	br := bufio.NewReader(r)

	packet, err := readPacket(br)
	if err != nil {
		return Handshake{}, err
	}
	pr := bytes.NewReader(packet)
	hs := Handshake{}
	if packetID, idErr := binutils.ReadVarInt(pr); idErr != nil || packetID != packetStatus {
		return Handshake{}, fmt.Errorf("%w: handshake packet id", ErrUnexpectedPacket)
	}
	if hs.Protocol, err = binutils.ReadVarInt(pr); err != nil {
		return Handshake{}, err
	}
	hostLen, err := binutils.ReadVarInt(pr)
	if err != nil {
		return Handshake{}, err
	}
	if hostLen < 0 || int(hostLen) > pr.Len() {
		return Handshake{}, fmt.Errorf("%w: host length %d", ErrResponseMalformed, hostLen)
	}
	host := make([]byte, hostLen)
	if _, err = io.ReadFull(pr, host); err != nil {
		return Handshake{}, err
	}
	hs.Host = string(host)
	port := make([]byte, 2)
	if _, err = io.ReadFull(pr, port); err != nil {
		return Handshake{}, err
	}
	hs.Port = uint16(port[0])<<8 | uint16(port[1])
	if hs.NextState, err = binutils.ReadVarInt(pr); err != nil {
		return Handshake{}, err
	}

	statusReq, err := readPacket(br)
	if err != nil {
		return Handshake{}, err
	}
	if len(statusReq) != 1 || statusReq[0] != packetStatus {
		return Handshake{}, fmt.Errorf("%w: status request", ErrUnexpectedPacket)
	}

	return hs, nil
}

// WriteResponse frames payload as a status response packet
func WriteResponse(w io.Writer, payload []byte) error {
	packet := binutils.AppendVarInt(nil, packetStatus)
	packet = binutils.AppendVarInt(packet, int32(len(payload))) // nolint: gosec
	packet = append(packet, payload...)

	framed := binutils.AppendVarInt(nil, int32(len(packet))) // nolint: gosec
	framed = append(framed, packet...)

	_, err := w.Write(framed)
	return err
}

func readPacket(r *bufio.Reader) ([]byte, error) {
	length, err := binutils.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 || length > maxPacketSize {
		return nil, fmt.Errorf("%w: packet length %d", ErrResponseMalformed, length)
	}
	packet := make([]byte, length)
	if _, err := io.ReadFull(r, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// ServerFactory starts a local server that hands every connection to handler.
// The returned func stops the server.
func ServerFactory(handler func(ctx context.Context, conn *net.TCPConn)) (*tcp.Server, func()) {
	server, err := tcp.New(handler)
	if err != nil {
		panic(err)
	}
	if err = server.Start("localhost:0"); err != nil {
		panic(err)
	}
	return server, func() {
		server.Stop() // nolint: errcheck
	}
}

// PrepareServer starts a server that answers every status request with the given response
func PrepareServer(resp any) (*tcp.Server, func()) {
	var payload []byte
	switch v := resp.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		payload = encoded
	}
	return ServerFactory(func(_ context.Context, conn *net.TCPConn) {
		if _, err := ReadRequest(conn); err != nil {
			return
		}
		WriteResponse(conn, payload) // nolint: errcheck
	})
}
