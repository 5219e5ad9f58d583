package request

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// RouteIntParam returns an URL route parameter as int.
func RouteIntParam(r *http.Request, param string) int {
	vars := mux.Vars(r)
	value, err := strconv.Atoi(vars[param])
	if err != nil {
		return 0
	}

	if value < 0 {
		return 0
	}

	return value
}

// QueryIntParam returns a query string parameter as int, or the default
// when missing or malformed.
func QueryIntParam(r *http.Request, param string, def int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(param))
	if err != nil || value < 0 {
		return def
	}
	return value
}

// QueryStringParam returns a query string parameter, or the default when
// missing.
func QueryStringParam(r *http.Request, param, def string) string {
	value := r.URL.Query().Get(param)
	if value == "" {
		return def
	}
	return value
}
