package handlers

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"restaurant-manager/core/upstream"
)

type form struct {
	values url.Values
}

func parseForm(r *http.Request) (form, error) {
	if err := r.ParseForm(); err != nil {
		return form{}, err
	}
	return form{values: r.PostForm}, nil
}

func (f form) text(key string) string {
	return strings.TrimSpace(f.values.Get(key))
}

// raw returns the value untrimmed; passwords keep their whitespace.
func (f form) raw(key string) string {
	return f.values.Get(key)
}

// checked maps an HTML checkbox to a bool. Browsers send "on" when ticked
// and omit the field otherwise.
func (f form) checked(key string) bool {
	switch strings.ToLower(f.values.Get(key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// lists collects "name[]" multi-value fields under "name".
func (f form) lists() map[string][]string {
	out := map[string][]string{}
	for key, vals := range f.values {
		if base, ok := strings.CutSuffix(key, "[]"); ok && base != "" {
			out[base] = append(out[base], vals...)
		}
	}
	return out
}

// prefixedIDs returns the ids of ticked checkboxes named prefix+id, sorted.
// List fields such as prefix+"ids[]" are not checkboxes and are skipped.
func (f form) prefixedIDs(prefix string) []upstream.ID {
	var ids []upstream.ID
	for key := range f.values {
		id, ok := strings.CutPrefix(key, prefix)
		if !ok || id == "" || strings.ContainsAny(id, "[]") || !f.checked(key) {
			continue
		}
		ids = append(ids, upstream.ID(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func queryBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(key))) {
	case "true", "1", "t", "on":
		return true
	}
	return false
}
