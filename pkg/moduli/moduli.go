// Package moduli loads the (identifier, modulus) input set from delimited
// text, in the format
//
//	<ID>,<modulus>
//
// with the modulus written in base 16 (default) or base 10.
package moduli

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// Maximum length of one input line. 16 MiB is enough for a million-digit
// modulus, far beyond any real key.
const maxLineBytes = 16 * 1024 * 1024

// Modulus is one input integer together with its external identifier.
// Immutable once loaded.
type Modulus struct {
	ID string
	N  *big.Int
	// Fingerprint identifies the value (not the ID), letting reporting
	// group duplicate moduli that carry distinct identifiers.
	Fingerprint [32]byte
}

// InvalidModulusError reports a line whose modulus field is malformed or not
// a positive integer. The engine never sees such input; loading rejects it.
type InvalidModulusError struct {
	Line int
	ID   string
}

func (e *InvalidModulusError) Error() string {
	return fmt.Sprintf("line %d (id %q): modulus is not a positive integer", e.Line, e.ID)
}

// Fingerprint hashes a modulus value.
func Fingerprint(n *big.Int) [32]byte {
	return sha3.Sum256(n.Bytes())
}

// ReadCSV parses the input set from r. base must be 10 or 16. Order is
// preserved; duplicate values are kept, since finding them is part of the
// engine's job.
func ReadCSV(r io.Reader, base int) ([]Modulus, error) {
	if base != 10 && base != 16 {
		return nil, errors.Errorf("unsupported modulus base %d", base)
	}

	var out []Modulus
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		id, field, found := strings.Cut(text, ",")
		if !found {
			return nil, &InvalidModulusError{Line: line, ID: text}
		}

		n, ok := new(big.Int).SetString(strings.TrimSpace(field), base)
		if !ok || n.Sign() <= 0 {
			return nil, &InvalidModulusError{Line: line, ID: id}
		}
		out = append(out, Modulus{ID: id, N: n, Fingerprint: Fingerprint(n)})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read moduli")
	}
	return out, nil
}

// ReadFile is ReadCSV over the contents of path.
func ReadFile(path string, base int) ([]Modulus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open moduli file %q", path)
	}
	defer f.Close()
	return ReadCSV(f, base)
}

// Values extracts the bare integer sequence handed to the tree builder.
func Values(ms []Modulus) []*big.Int {
	xs := make([]*big.Int, len(ms))
	for i := range ms {
		xs[i] = ms[i].N
	}
	return xs
}
