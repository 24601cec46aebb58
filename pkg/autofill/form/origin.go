package form

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Origin is a (scheme, host, port) triple. Origins compare with ==.
type Origin struct {
	Scheme string
	Host   string
	Port   int
}

var defaultPorts = map[string]int{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
}

// ParseOrigin returns the origin of rawURL. Default ports are made explicit
// so that "https://a.com" and "https://a.com:443" are the same origin.
func ParseOrigin(rawURL string) (Origin, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Origin{}, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return Origin{}, fmt.Errorf("url %q has no origin", rawURL)
	}

	o := Origin{
		Scheme: strings.ToLower(u.Scheme),
		Host:   strings.ToLower(u.Hostname()),
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Origin{}, fmt.Errorf("invalid port in %q: %w", rawURL, err)
		}
		o.Port = port
	} else {
		o.Port = defaultPorts[o.Scheme]
	}
	return o, nil
}

// MustParseOrigin is ParseOrigin for literals; it panics on error.
func MustParseOrigin(rawURL string) Origin {
	o, err := ParseOrigin(rawURL)
	if err != nil {
		panic(err)
	}
	return o
}

// IsZero reports whether the origin is unset (opaque).
func (o Origin) IsZero() bool {
	return o == Origin{}
}

func (o Origin) String() string {
	if o.IsZero() {
		return "null"
	}
	if o.Port == 0 || defaultPorts[o.Scheme] == o.Port {
		return fmt.Sprintf("%s://%s", o.Scheme, o.Host)
	}
	return fmt.Sprintf("%s://%s:%d", o.Scheme, o.Host, o.Port)
}
