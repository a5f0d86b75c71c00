package endpoint

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctorSignupLoginAdmin(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, requestSpec{method: http.MethodPost, path: "/signup", body: url.Values{
		"email": {"doc@spu.ac.ke"}, "username": {"Dr Who"}, "school_id": {"T001"}, "password": {"secret"}, "role": {"doctor"},
	}})
	assertRedirect(t, w, resp, "/login")
	assert.NotEmpty(t, sessionCookie(w))

	w, resp = s.do(t, requestSpec{method: http.MethodPost, path: "/login", body: map[string]string{
		"school_id": "T001", "password": "secret",
	}})
	assertRedirect(t, w, resp, "/admin")
	assertFlash(t, resp, "success", "Welcome back Dr Who!")
	session := sessionCookie(w)
	require.NotEmpty(t, session)

	w, resp = s.do(t, requestSpec{method: http.MethodGet, path: "/admin", session: session})
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, resp)
	assert.Equal(t, float64(0), data["num_appointments"])
	assert.Equal(t, map[string]interface{}{}, data["blood_group_counts"])
	assert.Equal(t, []interface{}{}, data["appointments"])
}

func TestLogin_Failures(t *testing.T) {
	s := setupTestServer(t)
	s.signUp(t, "lmr1", "p@spu.ac.ke", model.RolePatient)

	tests := []struct {
		name     string
		schoolID string
		password string
		want     string
	}{
		{"unknown school id", "nrb404", "pw-lmr1", service.MsgUnknownSchoolID},
		{"wrong password", "lmr1", "nope", service.MsgWrongPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := s.do(t, requestSpec{method: http.MethodPost, path: "/login", body: url.Values{
				"school_id": {tt.schoolID}, "password": {tt.password},
			}})
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assertFlash(t, resp, "error", tt.want)
			assert.Empty(t, sessionCookie(w))
		})
	}
}

func TestPatientLoginLandsHome(t *testing.T) {
	s := setupTestServer(t)
	s.signUp(t, "LMR123", "p@spu.ac.ke", model.RolePatient)

	w, resp := s.do(t, requestSpec{method: http.MethodPost, path: "/login", body: url.Values{
		"school_id": {"LMR123"}, "password": {"pw-LMR123"},
	}})
	assertRedirect(t, w, resp, "/")
}

func TestSignup_Validation(t *testing.T) {
	s := setupTestServer(t)
	s.signUp(t, "mks1", "taken@spu.ac.ke", model.RolePatient)

	tests := []struct {
		name string
		form url.Values
		want []string
	}{
		{
			name: "missing password",
			form: url.Values{"email": {"a@spu.ac.ke"}, "username": {"A"}, "school_id": {"lmr9"}, "role": {"patient"}},
			want: []string{service.MsgSignupIncomplete},
		},
		{
			name: "bad role",
			form: url.Values{"email": {"a@spu.ac.ke"}, "username": {"A"}, "school_id": {"lmr9"}, "password": {"x"}, "role": {"janitor"}},
			want: []string{service.MsgInvalidRole},
		},
		{
			name: "patient without campus marker",
			form: url.Values{"email": {"a@spu.ac.ke"}, "username": {"A"}, "school_id": {"S100"}, "password": {"x"}, "role": {"Patient"}},
			want: []string{service.MsgInvalidPatientID},
		},
		{
			name: "duplicates",
			form: url.Values{"email": {"taken@spu.ac.ke"}, "username": {"A"}, "school_id": {"mks1"}, "password": {"x"}, "role": {"patient"}},
			want: []string{service.MsgEmailExists, service.MsgSchoolIDExists},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := s.do(t, requestSpec{method: http.MethodPost, path: "/signup", body: tt.form})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assertFlash(t, resp, "error", tt.want...)
		})
	}

	var n int64
	require.NoError(t, s.db.Model(&model.Account{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/", "/profile", "/book_appointment", "/admin", "/takeup/1", "/account", "/logout"} {
		t.Run(path, func(t *testing.T) {
			w, resp := s.do(t, requestSpec{method: http.MethodGet, path: path})
			assertRedirect(t, w, resp, "/login")
			assertFlash(t, resp, "error", service.MsgLoginRequired)
		})
	}
}

func TestSessionHeaderAccepted(t *testing.T) {
	s := setupTestServer(t)
	session := s.account(t, "lmr5", "h@spu.ac.ke", model.RolePatient)

	w, _ := s.do(t, requestSpec{method: http.MethodGet, path: "/account", headers: map[string]string{"session-token": session}})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogout(t *testing.T) {
	s := setupTestServer(t)
	session := s.account(t, "nrb3", "n@spu.ac.ke", model.RolePatient)

	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/logout", session: session})
	assertRedirect(t, w, resp, "/login")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=;")
}

func TestPublicPages(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/login", "/signup", "/dashboard", "/forgot_password"} {
		w, resp := s.do(t, requestSpec{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, true, resp["success"], path)
	}

	_, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/dashboard"})
	assert.Equal(t, "Welcome to spu-dispensary!", resp["msg"])
}

func TestNotFoundRoutes(t *testing.T) {
	s := setupTestServer(t)

	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, resp["success"])

	w, _ = s.do(t, requestSpec{method: http.MethodPut, path: "/login"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
