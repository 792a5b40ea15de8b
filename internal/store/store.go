// Package store defines the contract of the table-oriented data store and its
// credential-based session service. Backends live in the rest and sqlstore
// subpackages.
package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Logical tables.
const (
	TableCases                 = "cases"
	TableBlogPosts             = "blog_posts"
	TableContactInquiries      = "contact_inquiries"
	TableTrademarkApplications = "trademark_applications"
)

var (
	// ErrInvalidCredentials is returned by an Authenticator when the identifier/secret pair is rejected.
	ErrInvalidCredentials = errors.New("store: invalid credentials")
	// ErrSessionNotFound is returned when an access token does not map to a live session.
	ErrSessionNotFound = errors.New("store: session not found")
	// ErrUnknownTable is returned when a query names a table the backend does not serve.
	ErrUnknownTable = errors.New("store: unknown table")
)

var placeholderKeys = map[string]struct{}{
	"your_supabase_anon_key":   {},
	"process.env.supabase_key": {},
	"changeme":                 {},
}

var httpURLPattern = regexp.MustCompile(`(?i)^https?://`)

// IsConfigured reports whether the store credentials are usable. An empty or
// non-http URL, or an empty or placeholder key, puts the caller in degraded mode.
func IsConfigured(storeURL, apiKey string) bool {
	if !httpURLPattern.MatchString(strings.TrimSpace(storeURL)) {
		return false
	}
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return false
	}
	_, placeholder := placeholderKeys[strings.ToLower(key)]
	return !placeholder
}

// Filter is an equality predicate on one column.
type Filter struct {
	Column string
	Value  any
}

// Order sorts results by one column.
type Order struct {
	Column     string
	Descending bool
}

// Query selects rows of one table.
type Query struct {
	Table   string
	Filters []Filter
	Order   *Order
	Limit   int
}

// From starts a query on table.
func From(table string) Query {
	return Query{Table: table}
}

// Eq adds an equality filter.
func (q Query) Eq(column string, value any) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, Filter{Column: column, Value: value})
	return q
}

// OrderBy sorts by column, newest/largest first when descending is set.
func (q Query) OrderBy(column string, descending bool) Query {
	q.Order = &Order{Column: column, Descending: descending}
	return q
}

// Take limits the number of returned rows.
func (q Query) Take(limit int) Query {
	q.Limit = limit
	return q
}

// Store is the table primitive set. dest arguments are pointers to slices of
// row structs; values maps are column name to value.
type Store interface {
	Select(ctx context.Context, query Query, dest any) error
	Insert(ctx context.Context, table string, values map[string]any, dest any) error
	Update(ctx context.Context, query Query, values map[string]any, dest any) error
	Delete(ctx context.Context, query Query) (int64, error)
	Count(ctx context.Context, table string) (int64, error)
}

// AuthUser is the identity the session service reports for an access token.
type AuthUser struct {
	ID    string
	Email string
}

// AuthSession is the result of a successful sign-in.
type AuthSession struct {
	AccessToken string
	User        AuthUser
}

// Authenticator is the credential-based session service of the store.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	User(ctx context.Context, accessToken string) (AuthUser, error)
}

type accessTokenKey struct{}

// WithAccessToken attaches an operator access token; backends that enforce
// row-level rules send it instead of the public key.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if strings.TrimSpace(token) == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the operator access token carried by ctx, if any.
func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}
