package notify

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
)

// Bark pushes notifications to an iOS device through a Bark server.
// The URL includes the device key, e.g. https://api.day.app/<key>.
type Bark struct {
	url   string
	group string
	cl    *http.Client
}

// NewBark returns a Bark channel posting under group.
func NewBark(deviceURL, group string) *Bark {
	return &Bark{
		url:   strings.TrimRight(deviceURL, "/"),
		group: group,
		cl:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Notify sends GET {url}/{title}/{message}?group={group}.
func (b *Bark) Notify(ctx context.Context, title, message string) error {
	rb := requests.URL(b.url + "/" + url.PathEscape(title) + "/" + url.PathEscape(message)).
		Client(b.cl).
		CheckStatus(http.StatusOK)
	if b.group != "" {
		rb = rb.Param("group", b.group)
	}
	return rb.Fetch(ctx)
}
