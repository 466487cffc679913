package fetcher

// TokenProvider supplies bearer credentials for upstream requests. Token
// acquisition and refresh protocol details live behind this interface.
type TokenProvider interface {
	// IsValid reports whether the currently held token is usable.
	IsValid() bool

	// Token returns the currently held token.
	Token() string

	// Refresh obtains a fresh token and returns it.
	Refresh() (string, error)

	// Cookies returns any session cookie header value the provider holds,
	// or "".
	Cookies() string
}

// StaticTokenProvider holds a fixed token, typically injected from
// configuration or the environment. It never expires.
type StaticTokenProvider struct {
	token  string
	cookie string
}

// NewStaticTokenProvider creates a provider around a fixed token and
// optional session cookie.
func NewStaticTokenProvider(token, cookie string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token, cookie: cookie}
}

func (p *StaticTokenProvider) IsValid() bool { return p.token != "" }

func (p *StaticTokenProvider) Token() string { return p.token }

func (p *StaticTokenProvider) Refresh() (string, error) { return p.token, nil }

func (p *StaticTokenProvider) Cookies() string { return p.cookie }
