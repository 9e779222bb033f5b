package qrlogin

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// Cookies is an immutable snapshot of session cookies keyed by name.
// Merge operations return a new snapshot and never modify the receiver.
type Cookies struct {
	values map[string]string
}

// NewCookies builds a snapshot from a plain map. The map is copied.
func NewCookies(values map[string]string) Cookies {
	c := Cookies{values: make(map[string]string, len(values))}
	for k, v := range values {
		if k == "" {
			continue
		}
		c.values[k] = v
	}
	return c
}

// Get returns the value of the named cookie
func (c Cookies) Get(name string) (string, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Len returns the number of cookies in the snapshot
func (c Cookies) Len() int {
	return len(c.values)
}

// IsEmpty reports whether the snapshot holds no cookies
func (c Cookies) IsEmpty() bool {
	return len(c.values) == 0
}

// Names returns the cookie names in sorted order
func (c Cookies) Names() []string {
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the snapshot as a plain map
func (c Cookies) Map() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Merge returns a new snapshot with other layered over c. Values in other win.
func (c Cookies) Merge(other Cookies) Cookies {
	out := Cookies{values: make(map[string]string, len(c.values)+len(other.values))}
	for k, v := range c.values {
		out.values[k] = v
	}
	for k, v := range other.values {
		out.values[k] = v
	}
	return out
}

// MergeHTTP returns a new snapshot with the given response cookies applied in
// order. A cookie with MaxAge < 0 removes the name from the snapshot.
func (c Cookies) MergeHTTP(cookies []*http.Cookie) Cookies {
	out := Cookies{values: make(map[string]string, len(c.values)+len(cookies))}
	for k, v := range c.values {
		out.values[k] = v
	}
	for _, ck := range cookies {
		if ck == nil || ck.Name == "" {
			continue
		}
		if ck.MaxAge < 0 {
			delete(out.values, ck.Name)
			continue
		}
		out.values[ck.Name] = ck.Value
	}
	return out
}

// Header renders the snapshot as a Cookie request header value
func (c Cookies) Header() string {
	names := c.Names()
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+c.values[name])
	}
	return strings.Join(parts, "; ")
}

// MarshalJSON encodes the snapshot as a flat JSON object
func (c Cookies) MarshalJSON() ([]byte, error) {
	if c.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.values)
}

// UnmarshalJSON decodes a flat JSON object into the snapshot
func (c *Cookies) UnmarshalJSON(data []byte) error {
	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*c = NewCookies(values)
	return nil
}

// ParseCookies decodes a persisted cookies blob. An empty blob yields an
// empty snapshot.
func ParseCookies(blob string) (Cookies, error) {
	if strings.TrimSpace(blob) == "" {
		return Cookies{}, nil
	}
	var c Cookies
	if err := json.Unmarshal([]byte(blob), &c); err != nil {
		return Cookies{}, err
	}
	return c, nil
}

// String returns the persisted blob form of the snapshot
func (c Cookies) String() string {
	b, err := c.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(b)
}
