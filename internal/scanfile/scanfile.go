package scanfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/sergeii/mcscan/internal/core/entities/target"
)

var (
	ErrLoadFailed    = errors.New("failed to load scan results")
	ErrInvalidFormat = errors.New("scan results must be a JSON array of records")
	ErrInvalidRecord = errors.New("invalid scan record")
)

type port struct {
	Port int `json:"port"`
}

// record is a single scanner result.
// masscan reports the address as "ip" and the open port in "ports"
type record struct {
	Address   string  `json:"address"`
	IP        string  `json:"ip"`
	Timestamp *string `json:"timestamp"`
	Ports     []port  `json:"ports"`
}

// candidate requires the timestamp to be present,
// its value is opaque and may be empty
type candidate struct {
	Address   string  `validate:"required,mcaddr"`
	Timestamp *string `validate:"required"`
}

func (r record) toCandidate() candidate {
	address := r.Address
	if address == "" && r.IP != "" {
		address = r.IP
		if len(r.Ports) > 0 && r.Ports[0].Port > 0 {
			address = net.JoinHostPort(r.IP, strconv.Itoa(r.Ports[0].Port))
		}
	}
	return candidate{
		Address:   address,
		Timestamp: r.Timestamp,
	}
}

// Load decodes scan results into targets, in the order they appear in the input.
// Any malformed record fails the whole load
func Load(r io.Reader, validate *validator.Validate) ([]target.Target, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrLoadFailed, ErrInvalidFormat, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, ErrInvalidFormat)
	}

	targets := make([]target.Target, 0)
	for i := 0; dec.More(); i++ {
		var rec record
		if err = dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: %w: record %d: %w", ErrLoadFailed, ErrInvalidRecord, i, err)
		}
		cand := rec.toCandidate()
		if err = validate.Struct(&cand); err != nil {
			return nil, fmt.Errorf("%w: %w: record %d: %w", ErrLoadFailed, ErrInvalidRecord, i, err)
		}
		targets = append(targets, target.New(cand.Address, *cand.Timestamp))
	}

	// closing bracket
	if _, err = dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrLoadFailed, ErrInvalidFormat, err)
	}
	// nothing is allowed after the array
	if _, err = dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w: trailing data", ErrLoadFailed, ErrInvalidFormat)
	}

	return targets, nil
}

func LoadFile(path string, validate *validator.Validate) ([]target.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	defer f.Close() // nolint: errcheck
	return Load(f, validate)
}
