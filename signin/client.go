// Package signin performs the daily EvCard check-in for one account.
package signin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/zap"

	"github.com/cppla/evsign/models"
	"github.com/cppla/evsign/notify"
	"github.com/cppla/evsign/utils"
)

var (
	// ErrTokenRequired is returned before any request is made for an empty credential.
	ErrTokenRequired = errors.New("token is required")
	// ErrNotConfigured means the signing keys or the base URL are missing.
	ErrNotConfigured = errors.New("sign-in client is not configured")
)

const (
	signInPath    = "/evcard-tcs/api/task/signIn"
	tcsTokenPre   = "tcs_appprod_evcardapp_"
	tcsOffset     = 15 * time.Second
	successCode   = "200"
	notifyTimeout = 10 * time.Second
	userAgent     = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148"
)

// Config carries the signing keys and the service endpoint.
type Config struct {
	AppKey    string
	AppSecret string
	TCSKey    string
	TCSSecret string
	BaseURL   string
	Timeout   time.Duration
}

// Validate reports which required setting is missing.
func (c Config) Validate() error {
	missing := []string{}
	for name, v := range map[string]string{
		"app key":    c.AppKey,
		"app secret": c.AppSecret,
		"tcs key":    c.TCSKey,
		"tcs secret": c.TCSSecret,
		"base url":   c.BaseURL,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// Client signs and sends check-in requests. It is safe for concurrent use.
type Client struct {
	cfg      Config
	notifier notify.Notifier
	cl       *http.Client
	log      *zap.SugaredLogger
	now      func() time.Time
	nonce    func() string
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, e.g. for tests.
func WithHTTPClient(cl *http.Client) Option { return func(c *Client) { c.cl = cl } }

// WithLogger replaces the logger.
func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.log = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithNonce replaces the random nonce generator.
func WithNonce(nonce func() string) Option { return func(c *Client) { c.nonce = nonce } }

// NewClient validates cfg and returns a Client. A nil notifier disables notifications.
func NewClient(cfg Config, notifier notify.Notifier, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		cfg:      cfg,
		notifier: notifier,
		cl:       &http.Client{Timeout: timeout},
		log:      utils.Sugar,
		now:      time.Now,
		nonce:    func() string { return randomNonce(nonceLength) },
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg.BaseURL = strings.TrimRight(c.cfg.BaseURL, "/")
	return c, nil
}

// anyStatus replaces the default 2xx check: the service reports rejections
// such as expired tokens as JSON bodies on non-2xx statuses.
func anyStatus(*http.Response) error { return nil }

type remoteResponse struct {
	Code json.RawMessage `json:"code"`
	Data json.RawMessage `json:"data"`
}

// SignIn performs one check-in for token. A response that parses always yields
// an Outcome, whatever its HTTP status and even when the service reports
// failure. Transport and decoding failures are returned as errors after a
// failure notification.
func (c *Client) SignIn(ctx context.Context, token, accountName string) (*models.Outcome, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}

	outcome, err := c.send(ctx, token)
	if err != nil {
		c.log.Errorw("sign-in request failed", "account", accountName, "error", err)
		c.notify(ctx, "EvCard签到失败: "+accountName, "错误: "+err.Error())
		return nil, err
	}

	c.log.Infow("sign-in finished", "account", accountName, "success", outcome.Success, "message", outcome.Message)
	c.notify(ctx, "EvCard签到: "+accountName, "结果: "+outcome.Message)
	return outcome, nil
}

func (c *Client) send(ctx context.Context, token string) (*models.Outcome, error) {
	now := c.now()
	timestamp := strconv.FormatInt(now.UnixMilli(), 10)
	tcsTimestamp := strconv.FormatInt(now.Add(tcsOffset).UnixMilli(), 10)
	nonce := c.nonce()

	var buf bytes.Buffer
	err := requests.URL(c.cfg.BaseURL).
		Path(signInPath).
		Client(c.cl).
		BodyJSON(struct{}{}).
		ContentType("application/json;charset=utf-8").
		Accept("application/json, text/plain, */*").
		UserAgent(userAgent).
		Header("Accept-Language", "en-US,en;q=0.9").
		Header("Origin", c.cfg.BaseURL).
		Header("Referer", c.cfg.BaseURL+"/evcard-viph5/").
		Header("userOrigin", "2").
		Header("dataOrigin", "2").
		Header("appKey", c.cfg.AppKey).
		Header("token", token).
		Header("timestamp", timestamp).
		Header("random", nonce).
		Header("sign", appSign(c.cfg.AppKey, c.cfg.AppSecret, timestamp, nonce, token)).
		Header("tcsAppKey", c.cfg.TCSKey).
		Header("tcsToken", tcsTokenPre+token).
		Header("tcsTimestamp", tcsTimestamp).
		Header("tcsSign", tcsSign(c.cfg.TCSKey, c.cfg.TCSSecret, tcsTimestamp)).
		AddValidator(anyStatus).
		ToBytesBuffer(&buf).
		Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("sign-in request: %w", err)
	}

	var resp remoteResponse
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}

	var raw bytes.Buffer
	if err := json.Compact(&raw, buf.Bytes()); err != nil {
		raw.Reset()
		raw.Write(buf.Bytes())
	}

	outcome := &models.Outcome{
		Success: string(resp.Code) == successCode,
		Message: "sign-in response: " + raw.String(),
	}
	if len(resp.Data) > 0 && string(resp.Data) != "null" {
		outcome.Data = resp.Data
	}
	return outcome, nil
}

// notify never fails the caller; it outlives ctx cancellation but not notifyTimeout.
func (c *Client) notify(ctx context.Context, title, message string) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := c.notifier.Notify(nctx, title, message); err != nil {
		c.log.Warnw("failed to send notification", "title", title, "error", err)
	}
}
