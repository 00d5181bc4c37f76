package addr

import (
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/sergeii/mcscan/pkg/minecraft/slp"
)

type Addr struct {
	Host string
	Port int
}

// DefaultPort is assumed for addresses that come without a port
const DefaultPort = slp.DefaultPort

var Blank Addr // nolint: gochecknoglobals

var (
	ErrInvalidHost = errors.New("invalid host")
	ErrInvalidPort = errors.New("invalid port number")
)

var hostnameRe = regexp.MustCompile(
	`^(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)(?:\.(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?))*\.?$`,
)

func New(host string, port int) (Addr, error) {
	if port < 1 || port > 65535 {
		return Blank, ErrInvalidPort
	}
	if !isValidHost(host) {
		return Blank, ErrInvalidHost
	}
	return Addr{Host: host, Port: port}, nil
}

func MustNew(host string, port int) Addr {
	addr, err := New(host, port)
	if err != nil {
		panic(err)
	}
	return addr
}

// Parse accepts either host:port or a bare host.
// Bare hosts (including unbracketed IPv6 addresses) get the default server port
func Parse(address string) (Addr, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return Blank, ErrInvalidHost
	}

	// an unbracketed IPv6 address contains colons but has no port
	if ip := net.ParseIP(address); ip != nil {
		return New(ip.String(), DefaultPort)
	}

	host, maybePort, err := net.SplitHostPort(address)
	if err != nil {
		// no port at all
		if strings.Contains(address, ":") {
			return Blank, ErrInvalidPort
		}
		return New(address, DefaultPort)
	}

	port, err := strconv.Atoi(maybePort)
	if err != nil {
		return Blank, ErrInvalidPort
	}

	return New(host, port)
}

func MustParse(address string) Addr {
	addr, err := Parse(address)
	if err != nil {
		panic(err)
	}
	return addr
}

func isValidHost(host string) bool {
	if host == "" {
		return false
	}
	if ip := net.ParseIP(host); ip != nil {
		return !ip.IsUnspecified()
	}
	return len(host) <= 253 && hostnameRe.MatchString(host)
}

func (a Addr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}
