// File: server/reader.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request line, header section and body readers.

package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/momentics/hioload-http/api"
)

// maxLineBytes caps a single request or header line.
const maxLineBytes = 64 << 10

var errLineTooLong = errors.New("line too long")

// readLine returns one line without its CR/LF terminator, joining the fragments
// bufio hands back for lines longer than its buffer.
func readLine(r *bufio.Reader) (string, error) {
	var line []byte
	for {
		l, more, err := r.ReadLine()
		if err != nil {
			return "", err
		}
		if line == nil && !more {
			return string(l), nil
		}
		line = append(line, l...)
		if len(line) > maxLineBytes {
			return "", errLineTooLong
		}
		if !more {
			break
		}
	}
	return string(line), nil
}

// parseRequestLine splits "METHOD target [version]" on single spaces.
func parseRequestLine(line string) (method string, target *url.URL, err error) {
	if strings.TrimSpace(line) == "" {
		return "", nil, api.NewError(api.ErrCodeProtocol, "empty request line")
	}
	parts := strings.Split(line, " ")
	if len(parts) < 2 || parts[1] == "" {
		return "", nil, api.NewError(api.ErrCodeProtocol, "malformed request line").
			WithContext("line", line)
	}
	u, perr := url.Parse(parts[1])
	if perr != nil {
		return "", nil, api.WrapError(api.ErrCodeProtocol, "invalid request target", perr)
	}
	return strings.ToUpper(parts[0]), u, nil
}

// readHeaders reads header lines until a blank line or EOF. Lines without a
// colon are skipped; names are lowercased and both sides trimmed.
func readHeaders(r *bufio.Reader) (map[string]string, error) {
	headers := make(map[string]string)
	for {
		line, err := readLine(r)
		if errors.Is(err, io.EOF) {
			return headers, nil
		}
		if err != nil {
			return headers, err
		}
		if line == "" {
			return headers, nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
}

// contentLength parses the content-length header. Absent means zero.
func contentLength(headers map[string]string, limit int64) (int64, error) {
	v, ok := headers["content-length"]
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, api.NewError(api.ErrCodePayload, "Invalid Content-Length header").
			WithContext("value", v)
	}
	if limit > 0 && n > limit {
		return 0, api.NewError(api.ErrCodePayload, "Request body too large").
			WithContext("length", n)
	}
	return n, nil
}

// readBody reads exactly n bytes.
func readBody(r *bufio.Reader, n int64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
