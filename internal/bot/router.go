package bot

import (
	"strings"
)

// prefixRoute matches custom IDs that carry a payload after a fixed prefix.
type prefixRoute[H any] struct {
	prefix  string
	handler H
}

// router maps interaction names and custom IDs to handlers. Exact matches win
// over prefixes, and a prefix only matches when a payload follows it.
type router[H any] struct {
	exact    map[string]H
	prefixes []prefixRoute[H]
}

func newRouter[H any]() *router[H] {
	return &router[H]{exact: make(map[string]H)}
}

func (r *router[H]) handle(id string, handler H) {
	r.exact[id] = handler
}

func (r *router[H]) handlePrefix(prefix string, handler H) {
	r.prefixes = append(r.prefixes, prefixRoute[H]{prefix: prefix, handler: handler})
}

// lookup returns the handler for id and the payload following a matched prefix.
func (r *router[H]) lookup(id string) (H, string, bool) {
	if handler, ok := r.exact[id]; ok {
		return handler, "", true
	}

	for _, route := range r.prefixes {
		if payload, ok := strings.CutPrefix(id, route.prefix); ok && payload != "" {
			return route.handler, payload, true
		}
	}

	var zero H
	return zero, "", false
}
