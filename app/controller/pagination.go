package controller

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// SortOrder represents the sort direction for queries
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// pageSpec is the resolved pagination state of one request. It doubles as the
// payload of the opaque next_key continuation: the key for the following page
// is this struct with the offset advanced, base64url-encoded.
type pageSpec struct {
	Offset int       `json:"offset"`
	Limit  int       `json:"limit"`
	Before int64     `json:"before,omitempty"`
	After  int64     `json:"after,omitempty"`
	Sort   SortOrder `json:"sort,omitempty"`
}

// parsePageSpec reads the discrete pagination parameters, unless a next_key is
// present, in which case the key wins and the discrete parameters are ignored.
func parsePageSpec(r *http.Request) (pageSpec, error) {
	qs := r.URL.Query()

	if v := qs.Get("next_key"); v != "" {
		return decodeNextKey(v)
	}

	spec := pageSpec{Limit: defaultLimit, Sort: SortOrderDesc}

	if v := qs.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return pageSpec{}, errInvalidOffset
		}
		spec.Offset = n
	}

	if v := qs.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return pageSpec{}, errInvalidLimit
		}
		if n > maxLimit {
			n = maxLimit
		}
		spec.Limit = n
	}

	if v := qs.Get("before"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return pageSpec{}, errInvalidTimestamp
		}
		spec.Before = n
	}
	if v := qs.Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return pageSpec{}, errInvalidTimestamp
		}
		spec.After = n
	}

	if v := qs.Get("sort"); v != "" {
		switch v {
		case "asc":
			spec.Sort = SortOrderAsc
		case "desc":
			spec.Sort = SortOrderDesc
		default:
			return pageSpec{}, errInvalidSort
		}
	}

	return spec, nil
}

func decodeNextKey(v string) (pageSpec, error) {
	raw, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return pageSpec{}, errInvalidNextKey
	}
	var spec pageSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return pageSpec{}, errInvalidNextKey
	}
	if spec.Offset < 0 || spec.Limit <= 0 || spec.Limit > maxLimit {
		return pageSpec{}, errInvalidNextKey
	}
	if spec.Sort == "" {
		spec.Sort = SortOrderDesc
	}
	return spec, nil
}

// nextKey encodes the continuation for the page immediately after this one.
func (p pageSpec) nextKey() string {
	n := p
	n.Offset += n.Limit
	raw, _ := json.Marshal(n)
	return base64.RawURLEncoding.EncodeToString(raw)
}

var (
	errInvalidOffset    = &parseError{msg: "invalid offset"}
	errInvalidLimit     = &parseError{msg: "invalid limit"}
	errInvalidTimestamp = &parseError{msg: "invalid before/after timestamp"}
	errInvalidSort      = &parseError{msg: "invalid sort, must be 'asc' or 'desc'"}
	errInvalidNextKey   = &parseError{msg: "invalid next_key"}
)

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }

type pagedResponse[T any] struct {
	Data    []T     `json:"data"`
	Limit   int     `json:"limit"`
	NextKey *string `json:"next_key"`
	Total   *uint64 `json:"total,omitempty"`
}
