package middleware

import (
	"net/http"
	"strings"

	vetsession "github.com/MrEthical07/vetsession"
	"github.com/MrEthical07/vetsession/session"
)

// Guard admits requests carrying a decodable, unexpired credential with at least one role.
//
// The credential is read from the Authorization bearer header, falling back to the token
// cookie. Rejected page loads (GET and HEAD) are redirected to the configured login path;
// other methods get 401. Admitted requests carry the session state in their context, read
// with [vetsession.SessionFromContext].
func Guard(engine *vetsession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			credential, ok := credentialFromRequest(r)
			if !ok {
				reject(w, r, engine.Config().LoginPath)
				return
			}

			state, err := engine.Validate(credential)
			if err != nil {
				reject(w, r, engine.Config().LoginPath)
				return
			}

			next.ServeHTTP(w, r.WithContext(vetsession.WithSession(r.Context(), state)))
		})
	}
}

func reject(w http.ResponseWriter, r *http.Request, loginPath string) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

func credentialFromRequest(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}
	c, err := r.Cookie(session.KeyToken)
	if err != nil || strings.TrimSpace(c.Value) == "" {
		return "", false
	}
	return c.Value, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
