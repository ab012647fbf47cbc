// Package payment turns decoded QR payloads into a URL the client can hand to
// the operating system to open a payment app.
package payment

import (
	"errors"
	"net/url"
	"strings"
)

const (
	SchemeUPI = "upi"
	SchemeWeb = "web"
)

var ErrEmptyPayload = errors.New("empty qr payload")

type Target struct {
	URL    string `json:"payment_url"`
	Scheme string `json:"scheme"`
	// Payee is the UPI virtual payment address when it could be read.
	Payee string `json:"payee,omitempty"`
}

// Resolve routes a QR payload: upi:// and http(s):// links pass through
// unchanged, anything else is treated as a payee address and wrapped into a
// upi://pay link.
func Resolve(qrData string) (Target, error) {
	data := strings.TrimSpace(qrData)
	if data == "" {
		return Target{}, ErrEmptyPayload
	}

	lower := strings.ToLower(data)
	switch {
	case strings.HasPrefix(lower, "upi://"):
		return Target{URL: data, Scheme: SchemeUPI, Payee: payeeFromUPI(data)}, nil
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return Target{URL: data, Scheme: SchemeWeb}, nil
	}

	return Target{
		URL:    "upi://pay?pa=" + url.QueryEscape(data),
		Scheme: SchemeUPI,
		Payee:  data,
	}, nil
}

func payeeFromUPI(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("pa")
}
