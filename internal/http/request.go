package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"rentroll/internal/core"
)

const maxBodyBytes = 1 << 20

// asOf reads the as_of query parameter (YYYY-MM-DD or RFC 3339). Absent
// means now.
func (s *Server) asOf(r *http.Request) (time.Time, error) {
	v := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if v == "" {
		return s.now(), nil
	}
	if ts, err := time.Parse(time.RFC3339, v); err == nil {
		return ts, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return time.Time{}, newBadRequest("invalid as_of", err)
	}
	return d.Time, nil
}

// intParam reads an integer query parameter bounded to [min, max].
func intParam(r *http.Request, name string, def, min, max int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, newBadRequest("invalid "+name, err)
	}
	if n < min || n > max {
		return 0, newBadRequest(name+" must be between "+strconv.Itoa(min)+" and "+strconv.Itoa(max), nil)
	}
	return n, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, newBadRequest("invalid "+name, err)
	}
	return b, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return newBadRequest("invalid JSON body", err)
	}
	return nil
}
