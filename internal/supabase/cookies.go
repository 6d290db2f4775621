package supabase

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	// maxChunkSize is the largest cookie value written before the session is chunked.
	maxChunkSize = 3180

	// base64Prefix marks base64url encoded cookie values.
	base64Prefix = "base64-"

	// DefaultCookieMaxAge is 400 days, the longest lifetime browsers accept.
	DefaultCookieMaxAge = 400 * 24 * 60 * 60
)

// CookieOptions are the attributes of a cookie write.
// A negative MaxAge deletes the cookie.
type CookieOptions struct {
	Path     string
	Domain   string
	MaxAge   int
	Expires  time.Time
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Cookie is a single name/value/options triple.
type Cookie struct {
	Name    string
	Value   string
	Options CookieOptions
}

// CookieStore is the accessor/mutator pair a Client is bound to.
//
// GetAll returns the cookies visible in the current execution context, in request order.
// SetAll stages a batch of cookie writes. Implementations that can not write cookies
// return an error, which the Client ignores.
type CookieStore interface {
	GetAll() []Cookie
	SetAll(cookies []Cookie) error
}

// DefaultCookieOptions returns the options the Supabase SSR helpers use.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{
		Path:     "/",
		SameSite: "Lax",
		HTTPOnly: false,
		MaxAge:   DefaultCookieMaxAge,
	}
}

// cookieStorage persists one session under a storage key through a CookieStore.
type cookieStorage struct {
	key     string
	options CookieOptions
	store   CookieStore
}

// load returns the stored session, nil if there is none.
func (s *cookieStorage) load() (*Session, error) {
	raw := combineChunks(s.key, s.store.GetAll())
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	return DecodeSession(raw)
}

// save writes the session and expires chunks of a previous, longer value.
func (s *cookieStorage) save(session *Session) {
	value, err := EncodeSession(session)
	if err != nil {
		log.Error().Err(err).Str("key", s.key).Msg("can't encode auth session")
		return
	}

	chunks := chunkCookies(s.key, value, s.options)

	written := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		written[c.Name] = struct{}{}
	}

	var batch []Cookie

	for _, c := range s.store.GetAll() {
		if _, ok := written[c.Name]; ok || !belongsTo(s.key, c.Name) {
			continue
		}

		batch = append(batch, s.removal(c.Name))
	}

	s.write(append(batch, chunks...))
}

// remove expires every cookie of the storage key that is present.
func (s *cookieStorage) remove() {
	var batch []Cookie

	for _, c := range s.store.GetAll() {
		if belongsTo(s.key, c.Name) {
			batch = append(batch, s.removal(c.Name))
		}
	}

	if len(batch) > 0 {
		s.write(batch)
	}
}

func (s *cookieStorage) removal(name string) Cookie {
	opts := s.options
	opts.MaxAge = -1
	opts.Expires = time.Time{}

	return Cookie{Name: name, Value: "", Options: opts}
}

// write ignores stores that refuse writes; a request middleware refreshes the
// cookies on the next request in that case.
func (s *cookieStorage) write(batch []Cookie) {
	if err := s.store.SetAll(batch); err != nil {
		log.Debug().Err(err).Str("key", s.key).Int("cookies", len(batch)).Msg("cookie store refused auth cookies")
	}
}

// belongsTo reports whether name is the key itself or one of its numbered chunks.
func belongsTo(key, name string) bool {
	if name == key {
		return true
	}

	suffix, ok := strings.CutPrefix(name, key+".")
	if !ok || suffix == "" {
		return false
	}

	_, err := strconv.Atoi(suffix)

	return err == nil
}

// chunkCookies splits value into cookies of at most maxChunkSize bytes.
func chunkCookies(key, value string, opts CookieOptions) []Cookie {
	if len(value) <= maxChunkSize {
		return []Cookie{{Name: key, Value: value, Options: opts}}
	}

	var chunks []Cookie

	for i := 0; len(value) > 0; i++ {
		n := min(maxChunkSize, len(value))
		chunks = append(chunks, Cookie{
			Name:    key + "." + strconv.Itoa(i),
			Value:   value[:n],
			Options: opts,
		})
		value = value[n:]
	}

	return chunks
}

// combineChunks returns the value stored under key, reassembling chunks if needed.
func combineChunks(key string, cookies []Cookie) string {
	values := make(map[string]string, len(cookies))
	for _, c := range cookies {
		values[c.Name] = c.Value
	}

	if v, ok := values[key]; ok {
		return v
	}

	var sb strings.Builder

	for i := 0; ; i++ {
		v, ok := values[key+"."+strconv.Itoa(i)]
		if !ok {
			break
		}

		sb.WriteString(v)
	}

	return sb.String()
}

// EncodeSession returns the cookie value of a session before chunking.
func EncodeSession(session *Session) (string, error) {
	out, err := json.Marshal(session)
	if err != nil {
		return "", errors.Wrap(err, "marshal session")
	}

	return base64Prefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// DecodeSession parses a reassembled cookie value. It accepts base64url values and
// legacy, possibly URI encoded, JSON values.
func DecodeSession(raw string) (*Session, error) {
	var data []byte

	if encoded, ok := strings.CutPrefix(raw, base64Prefix); ok {
		decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, errors.Wrap(err, "decode base64 session cookie")
		}

		data = decoded
	} else {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			unescaped = raw
		}

		data = []byte(unescaped)
	}

	session := new(Session)
	if err := json.Unmarshal(data, session); err != nil {
		return nil, errors.Wrap(err, "unmarshal session cookie")
	}

	return session, nil
}
