// Package security hashes and verifies account secrets.
//
// New hashes are bcrypt. Verification also accepts the werkzeug
// "pbkdf2:<alg>:<iterations>$salt$hex" and "scrypt:<N>:<r>:<p>$salt$hex"
// formats found in documents written by the previous implementation.
package security

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

const (
	MinCost     = bcrypt.MinCost
	DefaultCost = bcrypt.DefaultCost

	werkzeugPBKDF2Iterations = 600000
	werkzeugScryptN          = 1 << 15
	werkzeugScryptR          = 8
	werkzeugScryptP          = 1
	werkzeugScryptKeyLen     = 64
)

// HashPassword returns a bcrypt hash of raw.
func HashPassword(raw string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// VerifyPassword reports whether raw matches encoded. Unknown or malformed
// hash formats never match.
func VerifyPassword(encoded, raw string) bool {
	switch {
	case encoded == "":
		return false
	case strings.HasPrefix(encoded, "$2"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(raw)) == nil
	case strings.HasPrefix(encoded, "pbkdf2"), strings.HasPrefix(encoded, "scrypt"):
		ok, err := verifyWerkzeug(encoded, raw)
		return err == nil && ok
	default:
		return false
	}
}

// NeedsRehash reports whether encoded should be replaced by a fresh bcrypt hash.
func NeedsRehash(encoded string) bool {
	return !strings.HasPrefix(encoded, "$2")
}

func verifyWerkzeug(encoded, raw string) (bool, error) {
	method, rest, ok := strings.Cut(encoded, "$")
	if !ok {
		return false, fmt.Errorf("missing salt separator")
	}
	salt, want, ok := strings.Cut(rest, "$")
	if !ok {
		return false, fmt.Errorf("missing hash separator")
	}

	params := strings.Split(method, ":")
	var got []byte
	switch params[0] {
	case "pbkdf2":
		newHash, iterations, err := pbkdf2Params(params[1:])
		if err != nil {
			return false, err
		}
		got = pbkdf2.Key([]byte(raw), []byte(salt), iterations, newHash().Size(), newHash)
	case "scrypt":
		n, r, p, err := scryptParams(params[1:])
		if err != nil {
			return false, err
		}
		got, err = scrypt.Key([]byte(raw), []byte(salt), n, r, p, werkzeugScryptKeyLen)
		if err != nil {
			return false, fmt.Errorf("scrypt: %w", err)
		}
	default:
		return false, fmt.Errorf("unsupported method %q", params[0])
	}

	gotHex := hex.EncodeToString(got)
	return subtle.ConstantTimeCompare([]byte(gotHex), []byte(want)) == 1, nil
}

func pbkdf2Params(args []string) (func() hash.Hash, int, error) {
	newHash := sha256.New
	iterations := werkzeugPBKDF2Iterations
	if len(args) > 0 && args[0] != "" {
		switch args[0] {
		case "sha256":
		case "sha512":
			newHash = sha512.New
		case "sha1":
			newHash = sha1.New
		default:
			return nil, 0, fmt.Errorf("unsupported pbkdf2 digest %q", args[0])
		}
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return nil, 0, fmt.Errorf("bad pbkdf2 iterations %q", args[1])
		}
		iterations = n
	}
	return newHash, iterations, nil
}

func scryptParams(args []string) (n, r, p int, err error) {
	n, r, p = werkzeugScryptN, werkzeugScryptR, werkzeugScryptP
	if len(args) == 0 {
		return n, r, p, nil
	}
	if len(args) != 3 {
		return 0, 0, 0, fmt.Errorf("scrypt wants N:r:p, got %d params", len(args))
	}
	vals := make([]int, 3)
	for i, a := range args {
		v, convErr := strconv.Atoi(a)
		if convErr != nil || v <= 0 {
			return 0, 0, 0, fmt.Errorf("bad scrypt parameter %q", a)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}
