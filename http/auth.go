package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/hagall-common/logs"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeUnauthorized = "unauthorized"
)

// TokenVerifier checks the bearer token of incoming requests against a static
// token. An empty token accepts every request.
type TokenVerifier struct {
	Token string
}

func (v TokenVerifier) Verify(r *http.Request) error {
	if v.Token == "" {
		return nil
	}

	token := httpcmn.GetUserTokenFromHTTPRequest(r)
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.Token)) != 1 {
		return errors.New("invalid auth token").
			WithType(ErrTypeUnauthorized).
			WithTag("remote_addr", r.RemoteAddr)
	}
	return nil
}

// VerifyAuthToken returns a websocket handshake that rejects connections
// without a valid token.
func VerifyAuthToken(v TokenVerifier) func(*websocket.Config, *http.Request) error {
	return func(c *websocket.Config, r *http.Request) error {
		if err := v.Verify(r); err != nil {
			logs.WithClientID(r.Header.Get(httpcmn.HeaderPosemeshClientID)).Error(err)
			return err
		}

		return nil
	}
}

func VerifyAuthTokenHandler(v TokenVerifier, next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := v.Verify(r); err != nil {
			logs.WithClientID(r.Header.Get(httpcmn.HeaderPosemeshClientID)).Error(err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	}
}
