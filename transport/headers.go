package transport

import (
	"net/http"
	"sync"
)

// HeaderAuthorization is the header carrying the bearer credential.
const HeaderAuthorization = "Authorization"

// DefaultHeaders holds headers attached to every outgoing API request. It mirrors the
// credential in memory so requests made after login do not re-read the stores.
type DefaultHeaders struct {
	mu     sync.RWMutex
	header http.Header
}

// NewDefaultHeaders returns an empty header set.
func NewDefaultHeaders() *DefaultHeaders {
	return &DefaultHeaders{header: make(http.Header)}
}

// Set replaces the value of key.
func (h *DefaultHeaders) Set(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.header.Set(key, value)
}

// Get returns the value of key, or "" when unset.
func (h *DefaultHeaders) Get(key string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.header.Get(key)
}

// SetBearer sets the Authorization header to "Bearer <credential>". An empty credential
// removes it.
func (h *DefaultHeaders) SetBearer(credential string) {
	if credential == "" {
		h.Del(HeaderAuthorization)
		return
	}
	h.Set(HeaderAuthorization, "Bearer "+credential)
}

// Del removes key.
func (h *DefaultHeaders) Del(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.header.Del(key)
}

// Clear removes every header. Logout calls it first so no in-flight request can reuse the
// credential.
func (h *DefaultHeaders) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.header = make(http.Header)
}

// Len returns the number of distinct header keys.
func (h *DefaultHeaders) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.header)
}

// Apply copies the headers onto req without overwriting headers req already carries.
func (h *DefaultHeaders) Apply(req *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for key, values := range h.header {
		if req.Header.Get(key) != "" {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}
