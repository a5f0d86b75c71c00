package endpoint

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatientProfileFlow(t *testing.T) {
	s := setupTestServer(t)
	s.signUp(t, "lmr123", "patient@spu.ac.ke", model.RolePatient)
	session := s.login(t, "lmr123", "pw-lmr123")

	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/profile", session: session})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, dataOf(t, resp)["profile_created"])

	w, resp = s.do(t, requestSpec{method: http.MethodPost, path: "/profile", body: profileForm("0700111222"), session: session})
	assertRedirect(t, w, resp, "/")
	assertFlash(t, resp, "success", service.MsgProfileCreated)

	w, resp = s.do(t, requestSpec{method: http.MethodGet, path: "/", session: session})
	require.Equal(t, http.StatusOK, w.Code)
	appointments := dataOf(t, resp)["appointments"].([]interface{})
	require.Len(t, appointments, 1)
	first := appointments[0].(map[string]interface{})
	assert.Equal(t, "booked", first["appointment_status"])

	_, resp = s.do(t, requestSpec{method: http.MethodGet, path: "/profile", session: session})
	assert.Equal(t, true, dataOf(t, resp)["profile_created"])
}

func TestCreateProfile_Invalid(t *testing.T) {
	s := setupTestServer(t)
	session := s.account(t, "lmr1", "p@spu.ac.ke", model.RolePatient)

	tests := []struct {
		field string
		value string
		want  string
	}{
		{"marital_status", "Widowed", service.MsgInvalidMarital},
		{"blood_type", "C+", service.MsgInvalidBlood},
		{"height", "tall", service.MsgInvalidHeight},
		{"weight", "heavy", service.MsgInvalidWeight},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			form := profileForm("0700000000")
			form.Set(tt.field, tt.value)
			w, resp := s.do(t, requestSpec{method: http.MethodPost, path: "/profile", body: form, session: session})
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assertFlash(t, resp, "error", tt.want)
		})
	}
}

func TestCreateProfile_DuplicatePhone(t *testing.T) {
	s := setupTestServer(t)
	a := s.account(t, "lmr1", "a@spu.ac.ke", model.RolePatient)
	b := s.account(t, "lmr2", "b@spu.ac.ke", model.RolePatient)
	s.createProfile(t, a, "0711000000", "A+")

	w, resp := s.do(t, requestSpec{method: http.MethodPost, path: "/profile", body: profileForm("0711000000"), session: b})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, service.MsgBookingFailed, resp["msg"])
	assert.Equal(t, "", resp["error"])
}

func TestPatientRoutesRefuseDoctors(t *testing.T) {
	s := setupTestServer(t)
	doc := s.account(t, "T001", "d@spu.ac.ke", model.RoleDoctor)

	for _, path := range []string{"/", "/profile", "/book_appointment"} {
		w, resp := s.do(t, requestSpec{method: http.MethodGet, path: path, session: doc})
		assertRedirect(t, w, resp, "/login")
	}
}

func TestBookAppointmentLifecycle(t *testing.T) {
	s := setupTestServer(t)
	patient := s.account(t, "nrb7", "p@spu.ac.ke", model.RolePatient)
	doc := s.account(t, "T002", "d@spu.ac.ke", model.RoleDoctor)

	// no profile yet
	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/book_appointment", session: patient})
	assertRedirect(t, w, resp, "/profile")
	w, resp = s.do(t, requestSpec{method: http.MethodPost, path: "/book_appointment", body: url.Values{"appointment_id": {"1"}}, session: patient})
	assertRedirect(t, w, resp, "/profile")

	s.createProfile(t, patient, "0722000000", "B-")
	var profile model.Profile
	require.NoError(t, s.db.First(&profile).Error)
	id := fmt.Sprint(profile.ID)

	w, _ = s.do(t, requestSpec{method: http.MethodGet, path: "/book_appointment", session: patient})
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp = s.do(t, requestSpec{method: http.MethodPost, path: "/book_appointment", body: url.Values{"appointment_id": {id}}, session: patient})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertFlash(t, resp, "error", service.MsgRebookNotApproved)

	w, resp = s.do(t, requestSpec{method: http.MethodPost, path: "/book_appointment", body: url.Values{"appointment_id": {"abc"}}, session: patient})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assertFlash(t, resp, "error", service.MsgInvalidAppointment)

	w, resp = s.do(t, requestSpec{method: http.MethodGet, path: "/takeup/" + id, session: doc})
	assertRedirect(t, w, resp, "/admin")
	assertFlash(t, resp, "success", service.MsgApproved)
	require.Len(t, s.mail.Sent(), 1)
	assert.Equal(t, []string{"p@spu.ac.ke"}, s.mail.Sent()[0].Recipients)

	w, resp = s.do(t, requestSpec{method: http.MethodGet, path: "/takeup/" + id, session: doc})
	assertRedirect(t, w, resp, "/admin")
	assertFlash(t, resp, "info", service.MsgAlreadyApproved)

	w, resp = s.do(t, requestSpec{method: http.MethodPost, path: "/book_appointment", body: url.Values{"appointment_id": {id}}, session: patient})
	require.Equal(t, http.StatusOK, w.Code)
	assertFlash(t, resp, "success", service.MsgRebooked)

	require.NoError(t, s.db.First(&profile, profile.ID).Error)
	assert.Equal(t, model.StatusBooked, profile.AppointmentStatus)
}

func TestAdminOverviewCounts(t *testing.T) {
	s := setupTestServer(t)
	a := s.account(t, "lmr1", "a@spu.ac.ke", model.RolePatient)
	b := s.account(t, "mks1", "b@spu.ac.ke", model.RolePatient)
	doc := s.account(t, "T001", "d@spu.ac.ke", model.RoleDoctor)
	s.createProfile(t, a, "0733000001", "O+")
	s.createProfile(t, b, "0733000002", "O+")
	s.createProfile(t, b, "0733000003", "A-")

	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/admin", session: doc})
	require.Equal(t, http.StatusOK, w.Code)
	data := dataOf(t, resp)
	assert.Equal(t, float64(3), data["num_appointments"])
	assert.Equal(t, map[string]interface{}{"O+": float64(2), "A-": float64(1)}, data["blood_group_counts"])
}

func TestAdmin_PatientIsLoggedOut(t *testing.T) {
	s := setupTestServer(t)
	patient := s.account(t, "lmr1", "p@spu.ac.ke", model.RolePatient)

	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/admin", session: patient})
	assertRedirect(t, w, resp, "/login")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "session=;")
}

func TestTakeup_Refusals(t *testing.T) {
	s := setupTestServer(t)
	patient := s.account(t, "lmr1", "p@spu.ac.ke", model.RolePatient)
	doc := s.account(t, "T001", "d@spu.ac.ke", model.RoleDoctor)

	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: "/takeup/1", session: patient})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assertFlash(t, resp, "error", service.MsgRestricted)

	w, _ = s.do(t, requestSpec{method: http.MethodGet, path: "/takeup/999", session: doc})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, requestSpec{method: http.MethodGet, path: "/takeup/abc", session: doc})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAppointment(t *testing.T) {
	s := setupTestServer(t)
	patient := s.account(t, "lmr1", "p@spu.ac.ke", model.RolePatient)
	s.createProfile(t, patient, "0744000000", "AB+")
	var profile model.Profile
	require.NoError(t, s.db.First(&profile).Error)
	path := fmt.Sprintf("/delete/%d", profile.ID)

	// no session needed
	w, resp := s.do(t, requestSpec{method: http.MethodGet, path: path})
	assertRedirect(t, w, resp, "/")

	var n int64
	require.NoError(t, s.db.Model(&model.Profile{}).Count(&n).Error)
	assert.Zero(t, n)

	w, _ = s.do(t, requestSpec{method: http.MethodGet, path: path})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(t, requestSpec{method: http.MethodGet, path: "/delete/x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
