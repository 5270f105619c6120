package script

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// BuiltinFunc generates a value inside a script expression. Builtins are
// pure with respect to the host: they touch no filesystem, network, or
// process state.
type BuiltinFunc func(args []string) (string, error)

var builtins = map[string]BuiltinFunc{
	"uuid":         funcUUID,
	"now":          funcNow,
	"timestamp":    funcTimestamp,
	"timestampMs":  funcTimestampMs,
	"randomString": funcRandomString,
	"base64":       funcBase64,
}

func callBuiltin(name string, args []string) (string, error) {
	fn, ok := builtins[name]
	if !ok {
		return "", fmt.Errorf("unknown function: %s", name)
	}
	return fn(args)
}

func funcUUID(args []string) (string, error) {
	return uuid.NewString(), nil
}

func funcNow(args []string) (string, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcTimestamp(args []string) (string, error) {
	return strconv.FormatInt(time.Now().Unix(), 10), nil
}

func funcTimestampMs(args []string) (string, error) {
	return strconv.FormatInt(time.Now().UnixMilli(), 10), nil
}

const randomChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func funcRandomString(args []string) (string, error) {
	length := 16
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 || n > 1024 {
			return "", fmt.Errorf("randomString: invalid length %q", args[0])
		}
		length = n
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = randomChars[rand.Intn(len(randomChars))]
	}
	return string(b), nil
}

func funcBase64(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("base64: expected 1 argument, got %d", len(args))
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}
