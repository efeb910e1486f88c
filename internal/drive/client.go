package drive

import (
	"crypto/rsa"
	"net/http"
	"time"
)

const (
	// DriveFileScope limits the service account to files it created.
	DriveFileScope = "https://www.googleapis.com/auth/drive.file"

	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultAPIBase   = "https://www.googleapis.com/drive/v3"
	defaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files"

	defaultTimeout = 30 * time.Second
)

// Doer is the HTTP capability the client needs. Tests substitute a
// deterministic fake transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FolderCache maps folder names to previously resolved folder ids so repeat
// uploads skip the search call.
type FolderCache interface {
	Get(name string) (string, bool)
	Put(name string, id string)
}

// Client uploads files to Google Drive as a service account. Each upload is
// an independent unit of work: a fresh token is minted per call and no state
// is shared between concurrent invocations.
type Client struct {
	httpClient Doer
	account    ServiceAccount
	key        *rsa.PrivateKey
	scope      string
	cache      FolderCache
	now        func() time.Time

	tokenURL  string
	apiBase   string
	uploadURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client or fake transport.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) { c.httpClient = d }
}

// WithFolderCache sets a folder name to id cache.
func WithFolderCache(cache FolderCache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithEndpoints overrides the Google endpoints (for tests).
func WithEndpoints(tokenURL, apiBase, uploadURL string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.apiBase = apiBase
		c.uploadURL = uploadURL
	}
}

// WithClock overrides the wall clock used for assertion claims (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient builds a Drive upload client. The private key is normalized and
// imported here so malformed credentials fail at startup, before any request
// is served.
func NewClient(account ServiceAccount, opts ...Option) (*Client, error) {
	key, err := ParsePrivateKey(account.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		account:    account,
		key:        key,
		scope:      DriveFileScope,
		now:        time.Now,
		tokenURL:   defaultTokenURL,
		apiBase:    defaultAPIBase,
		uploadURL:  defaultUploadURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}
