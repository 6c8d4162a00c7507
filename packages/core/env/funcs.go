package env

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Func is a built-in callable from a placeholder, e.g. {{random(1, 6)}}.
type Func func(args []string) (string, error)

var callPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func defaultFuncs() map[string]Func {
	return map[string]Func{
		"now": func([]string) (string, error) {
			return time.Now().UTC().Format(time.RFC3339), nil
		},
		"timestamp": func([]string) (string, error) {
			return strconv.FormatInt(time.Now().Unix(), 10), nil
		},
		"timestampMs": func([]string) (string, error) {
			return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
		},
		"date": func(args []string) (string, error) {
			layout := "2006-01-02"
			if len(args) > 0 {
				layout = args[0]
			}
			return time.Now().UTC().Format(layout), nil
		},
		"uuid": func([]string) (string, error) {
			return uuid.NewString(), nil
		},
		"random":       funcRandom,
		"randomString": funcRandomString,
		"base64": oneArg(func(s string) (string, error) {
			return base64.StdEncoding.EncodeToString([]byte(s)), nil
		}),
		"sha256": oneArg(func(s string) (string, error) {
			sum := sha256.Sum256([]byte(s))
			return hex.EncodeToString(sum[:]), nil
		}),
		"urlEncode": oneArg(func(s string) (string, error) {
			return url.QueryEscape(s), nil
		}),
	}
}

func oneArg(fn func(string) (string, error)) Func {
	return func(args []string) (string, error) {
		if len(args) != 1 {
			return "", fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		return fn(args[0])
	}
}

func funcRandom(args []string) (string, error) {
	lo, hi := 0, 100
	if len(args) == 2 {
		var err error
		if lo, err = strconv.Atoi(args[0]); err != nil {
			return "", fmt.Errorf("min %q is not an integer", args[0])
		}
		if hi, err = strconv.Atoi(args[1]); err != nil {
			return "", fmt.Errorf("max %q is not an integer", args[1])
		}
	}
	if hi < lo {
		return "", fmt.Errorf("max %d is below min %d", hi, lo)
	}
	return strconv.Itoa(lo + rand.Intn(hi-lo+1)), nil
}

func funcRandomString(args []string) (string, error) {
	n := 16
	if len(args) > 0 {
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil || n < 0 {
			return "", fmt.Errorf("length %q is not a non-negative integer", args[0])
		}
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rand.Intn(len(alphanumeric))]
	}
	return string(b), nil
}

// splitArgs splits a call's argument list on commas outside quotes and
// strips the quotes.
func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var (
		args  []string
		cur   strings.Builder
		quote rune
	)
	for _, ch := range s {
		switch {
		case quote != 0 && ch == quote:
			quote = 0
		case quote == 0 && (ch == '"' || ch == '\''):
			quote = ch
		case quote == 0 && ch == ',':
			args = append(args, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(ch)
		}
	}
	return append(args, strings.TrimSpace(cur.String()))
}
