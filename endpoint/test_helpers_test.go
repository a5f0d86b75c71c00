package endpoint

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ariebrainware/spu-dispensary/config"
	"github.com/ariebrainware/spu-dispensary/mailer"
	"github.com/ariebrainware/spu-dispensary/middleware"
	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	mail   *mailer.Recorder
}

// setupTestServer wires the full router over a fresh in-memory database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	config.SetRedisClientForTest(nil)

	db, err := config.ConnectDatabase()
	require.NoError(t, err)
	require.NoError(t, model.Migrate(db, false))

	rec := &mailer.Recorder{}
	svc := service.New(service.Options{
		DB:         db,
		Mail:       rec,
		Secret:     "test-secret-123",
		BaseURL:    "http://localhost:7070",
		SessionTTL: time.Hour,
	})
	r := SetupRouter(svc, RouterConfig{
		AppName:     "spu-dispensary",
		CORSOrigins: []string{"http://localhost:3000"},
		RateLimit:   middleware.RateLimitConfig{Limit: 1000, Window: time.Minute},
	})
	return &testServer{router: r, db: db, mail: rec}
}

func (s *testServer) do(t *testing.T, rs requestSpec) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w, resp, err := performRequest(s.router, rs)
	require.NoError(t, err)
	return w, resp
}

// signUp registers an account through POST /signup with password "pw-"+schoolID.
func (s *testServer) signUp(t *testing.T, schoolID, email string, role model.Role) {
	t.Helper()
	w, _ := s.do(t, requestSpec{method: http.MethodPost, path: "/signup", body: url.Values{
		"email":     {email},
		"username":  {"User " + schoolID},
		"school_id": {schoolID},
		"password":  {"pw-" + schoolID},
		"role":      {string(role)},
	}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
}

// login signs in and returns the session cookie value.
func (s *testServer) login(t *testing.T, schoolID, password string) string {
	t.Helper()
	w, _ := s.do(t, requestSpec{method: http.MethodPost, path: "/login", body: url.Values{
		"school_id": {schoolID},
		"password":  {password},
	}})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	token := sessionCookie(w)
	require.NotEmpty(t, token)
	return token
}

// account signs up and logs in, returning the session.
func (s *testServer) account(t *testing.T, schoolID, email string, role model.Role) string {
	t.Helper()
	s.signUp(t, schoolID, email, role)
	return s.login(t, schoolID, "pw-"+schoolID)
}

func (s *testServer) createProfile(t *testing.T, session, phone, blood string) {
	t.Helper()
	form := profileForm(phone)
	form.Set("blood_type", blood)
	w, _ := s.do(t, requestSpec{method: http.MethodPost, path: "/profile", body: form, session: session})
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
}

func profileForm(phone string) url.Values {
	return url.Values{
		"marital_status": {"Single"},
		"phonenumber":    {phone},
		"address":        {"Box 42"},
		"postcode":       {"00100"},
		"city":           {"Nairobi"},
		"area":           {"Madaraka"},
		"country":        {"Kenya"},
		"state":          {"Nairobi"},
		"height":         {"170"},
		"weight":         {"65"},
		"blood_type":     {"O+"},
	}
}

func sessionCookie(w *httptest.ResponseRecorder) string {
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			return c.Value
		}
	}
	return ""
}

// assertRedirect checks a 303 to location, both in the header and the envelope.
func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, resp map[string]interface{}, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, location, w.Header().Get("Location"))
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, location, data["redirect"])
}

// assertFlash checks that the response carries exactly the given flashes of category.
func assertFlash(t *testing.T, resp map[string]interface{}, category string, messages ...string) {
	t.Helper()
	raw, ok := resp["flashes"].([]interface{})
	require.True(t, ok, "flashes missing")
	var got []string
	for _, f := range raw {
		m := f.(map[string]interface{})
		assert.Equal(t, category, m["category"])
		got = append(got, m["message"].(string))
	}
	assert.Equal(t, messages, got)
}

func dataOf(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object")
	return data
}

// resetTokenFrom pulls the token out of a reset email body.
func resetTokenFrom(t *testing.T, body string) string {
	t.Helper()
	const marker = "/reset_password/"
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len(marker):]
	end := strings.IndexByte(rest, '\'')
	require.Greater(t, end, 0)
	return rest[:end]
}
