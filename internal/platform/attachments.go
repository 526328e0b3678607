package platform

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/jshumphrey/full-course-yellow/internal/models"
)

const (
	maxAttachmentBytes = 8 * 1024 * 1024
	fetchTimeout       = 10 * time.Second
)

// AttachmentFetcher downloads command attachments from the Discord CDN for
// re-upload with outgoing alerts, over a small pool of fasthttp clients.
type AttachmentFetcher struct {
	clients []*fasthttp.Client
	next    atomic.Uint32
}

func NewAttachmentFetcher(size int) *AttachmentFetcher {
	if size < 1 {
		size = 1
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ClientSessionCache: tls.NewLRUClientSessionCache(32),
	}

	clients := make([]*fasthttp.Client, size)
	for i := range clients {
		clients[i] = &fasthttp.Client{
			ReadTimeout:         fetchTimeout,
			WriteTimeout:        fetchTimeout,
			MaxIdleConnDuration: 90 * time.Second,
			MaxResponseBodySize: maxAttachmentBytes,
			TLSConfig:           tlsConfig,
		}
	}

	return &AttachmentFetcher{clients: clients}
}

// FetchAttachment downloads the attachment at url. A spoilered attachment
// keeps its spoiler state through the Discord filename convention.
func (f *AttachmentFetcher) FetchAttachment(ctx context.Context, url, filename string, spoiler bool) (*models.Attachment, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)

	timeout := fetchTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	if err := f.client().DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("downloading attachment %s: %w", url, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("downloading attachment %s: status %d", url, resp.StatusCode())
	}

	// The response body is pooled; copy it out.
	data := make([]byte, len(resp.Body()))
	copy(data, resp.Body())

	if spoiler {
		filename = "SPOILER_" + filename
	}

	return &models.Attachment{
		Filename:    filename,
		ContentType: string(resp.Header.ContentType()),
		Data:        data,
		Spoiler:     spoiler,
	}, nil
}

func (f *AttachmentFetcher) client() *fasthttp.Client {
	n := f.next.Add(1)
	return f.clients[int(n)%len(f.clients)]
}
