package endpoint

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

type requestSpec struct {
	method  string
	path    string
	body    interface{}
	session string
	headers map[string]string
}

// performRequest sends rs to r. url.Values bodies are form encoded, anything
// else non-nil is sent as JSON.
func performRequest(r *gin.Engine, rs requestSpec) (*httptest.ResponseRecorder, map[string]interface{}, error) {
	var reader *strings.Reader
	contentType := ""
	switch v := rs.body.(type) {
	case nil:
		reader = strings.NewReader("")
	case url.Values:
		reader = strings.NewReader(v.Encode())
		contentType = "application/x-www-form-urlencoded"
	case string:
		reader = strings.NewReader(v)
		contentType = "application/json"
	default:
		b, _ := json.Marshal(rs.body)
		reader = strings.NewReader(string(b))
		contentType = "application/json"
	}

	req := httptest.NewRequest(rs.method, rs.path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if rs.session != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: rs.session})
	}
	for key, value := range rs.headers {
		req.Header.Set(key, value)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			return w, nil, err
		}
	}
	return w, response, nil
}
