package downloader

import (
	"CineVault/config"
	"CineVault/internal/apperr"
	"CineVault/internal/storage"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// HTTPStatusError is returned for non-200 HTTP responses.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("bad status: %s", e.Status)
}

// HTTPTransfer fetches a URL and streams it into object storage chunk by
// chunk, so cancellation and bandwidth limits apply between chunks.
type HTTPTransfer struct {
	Store     storage.Store
	Bucket    string
	Client    *http.Client
	ChunkSize int64
	MaxBytes  int64
}

// NewHTTPTransfer builds the default transfer executor from config.
func NewHTTPTransfer(store storage.Store, bucket string) *HTTPTransfer {
	return &HTTPTransfer{
		Store:  store,
		Bucket: bucket,
		Client: &http.Client{
			Timeout: config.AppConfig.DownloadHTTPTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				_, err := validateDownloadURL(req.URL.String())
				return err
			},
		},
		ChunkSize: config.AppConfig.DownloadChunkSize,
		MaxBytes:  config.AppConfig.DownloadMaxBytes,
	}
}

// Fetch downloads req.Source into the bucket under req.Object.
func (t *HTTPTransfer) Fetch(ctx context.Context, req TransferRequest) (int64, error) {
	parsed, err := validateDownloadURL(req.Source)
	if err != nil {
		return 0, apperr.Validation("%s", err.Error())
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return 0, apperr.TransientTransfer(err)
	}
	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return 0, apperr.TransientTransfer(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, apperr.TransientTransfer(&HTTPStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		})
	}
	if t.MaxBytes > 0 && resp.ContentLength > t.MaxBytes {
		return 0, apperr.Validation("content too large")
	}

	var limiter *rate.Limiter
	if req.Bandwidth != nil && *req.Bandwidth > 0 {
		burst := int(t.chunk())
		limiter = rate.NewLimiter(rate.Limit(float64(*req.Bandwidth)), burst)
	}
	reader := &meteredReader{
		ctx:      ctx,
		r:        resp.Body,
		limiter:  limiter,
		chunk:    t.chunk(),
		total:    resp.ContentLength,
		progress: req.Progress,
	}
	if err := t.Store.PutObject(ctx, t.Bucket, req.Object, reader, resp.ContentLength, storage.PutOptions{
		ContentType: resp.Header.Get("Content-Type"),
	}); err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, apperr.TransientTransfer(err)
	}
	if resp.ContentLength > 0 {
		return resp.ContentLength, nil
	}
	return reader.done, nil
}

func (t *HTTPTransfer) chunk() int64 {
	if t.ChunkSize > 0 {
		return t.ChunkSize
	}
	return 256 * 1024
}

// meteredReader caps each read at one chunk, applies the bandwidth
// limiter, checks for cancellation and reports progress.
type meteredReader struct {
	ctx      context.Context
	r        io.Reader
	limiter  *rate.Limiter
	chunk    int64
	done     int64
	total    int64
	progress func(done, total int64)
}

func (m *meteredReader) Read(p []byte) (int, error) {
	if err := m.ctx.Err(); err != nil {
		return 0, err
	}
	if int64(len(p)) > m.chunk {
		p = p[:m.chunk]
	}
	n, err := m.r.Read(p)
	if n > 0 {
		if m.limiter != nil {
			if waitErr := m.limiter.WaitN(m.ctx, n); waitErr != nil {
				return n, waitErr
			}
		}
		m.done += int64(n)
		if m.progress != nil {
			total := m.total
			if total < 0 {
				total = 0
			}
			m.progress(m.done, total)
		}
	}
	return n, err
}

func hostAllowed(host string, allowlist []string) bool {
	if len(allowlist) == 0 {
		return true
	}
	host = strings.ToLower(strings.TrimSpace(host))
	for _, entry := range allowlist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, ".") {
			if strings.HasSuffix(host, entry) {
				return true
			}
			continue
		}
		if host == entry {
			return true
		}
	}
	return false
}

func isLocalHostname(host string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "localhost" || host == "localhost.localdomain" {
		return true
	}
	return strings.HasSuffix(host, ".local")
}

func isBlockedIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsMulticast() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return true
	}
	return ip.IsPrivate()
}

func validateDownloadURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme")
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing host")
	}
	if !hostAllowed(host, config.AppConfig.DownloadAllowedHosts) {
		return nil, fmt.Errorf("host not allowed")
	}
	if config.AppConfig.DownloadAllowPrivate {
		return u, nil
	}
	if isLocalHostname(host) {
		return nil, fmt.Errorf("host not allowed")
	}
	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return nil, fmt.Errorf("ip not allowed")
		}
		return u, nil
	}
	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("host not resolvable")
	}
	for _, ip := range ips {
		if isBlockedIP(ip) {
			return nil, fmt.Errorf("ip not allowed")
		}
	}
	return u, nil
}

// ValidateSourceURL validates a download source before task creation.
func ValidateSourceURL(rawURL string) error {
	_, err := validateDownloadURL(rawURL)
	return err
}
