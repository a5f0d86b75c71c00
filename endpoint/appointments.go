package endpoint

import (
	"errors"

	"github.com/ariebrainware/spu-dispensary/model"
	"github.com/ariebrainware/spu-dispensary/service"
	"github.com/ariebrainware/spu-dispensary/util"
	"github.com/gin-gonic/gin"
)

type BookRequest struct {
	AppointmentID string `form:"appointment_id" json:"appointment_id"`
}

// Home lists the patient's appointments.
func (h *Handler) Home(c *gin.Context, ident service.Identity) {
	profiles, err := h.svc.PatientProfiles(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments",
		Data: gin.H{"appointments": profiles, "account": ident.Account},
	})
}

// ProfilePage describes the intake form. profile_created tells clients
// whether the patient already filled it in.
func (h *Handler) ProfilePage(c *gin.Context, ident service.Identity) {
	profiles, err := h.svc.PatientProfiles(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Profile",
		Data: gin.H{
			"profile_created":  len(profiles) > 0,
			"marital_statuses": model.MaritalStatuses,
			"blood_types":      model.BloodTypes,
		},
	})
}

// CreateProfile books a new appointment from the intake form.
func (h *Handler) CreateProfile(c *gin.Context, ident service.Identity) {
	var req service.ProfileInput
	if !bindOrRespond(c, &req) {
		return
	}
	profile, err := h.svc.CreateProfile(c.Request.Context(), ident, req)
	if err != nil {
		respondError(c, err)
		return
	}
	util.CallRedirect(c, pathHome, util.APISuccessParams{
		Msg:     service.MsgProfileCreated,
		Data:    gin.H{"profile": profile},
		Flashes: successFlash(service.MsgProfileCreated),
	})
}

// BookAppointmentPage lists the appointments a patient can re-book. Patients
// without a profile are sent to the intake form.
func (h *Handler) BookAppointmentPage(c *gin.Context, ident service.Identity) {
	profiles, err := h.svc.PatientProfiles(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(profiles) == 0 {
		util.CallRedirect(c, pathProfile, util.APISuccessParams{})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Book appointment",
		Data: gin.H{"appointments": profiles},
	})
}

// BookAppointment re-books an approved appointment.
func (h *Handler) BookAppointment(c *gin.Context, ident service.Identity) {
	var req BookRequest
	if !bindOrRespond(c, &req) {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.svc.Rebook(ctx, ident, req.AppointmentID); err != nil {
		if errors.Is(err, service.ErrNoProfiles) {
			util.CallRedirect(c, pathProfile, util.APISuccessParams{})
			return
		}
		respondError(c, err)
		return
	}

	profiles, err := h.svc.PatientProfiles(ctx, ident)
	if err != nil {
		respondError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:     service.MsgRebooked,
		Data:    gin.H{"appointments": profiles},
		Flashes: successFlash(service.MsgRebooked),
	})
}

// DeleteAppointment removes a profile row by id.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProfile(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	util.CallRedirect(c, pathHome, util.APISuccessParams{Msg: "Appointment deleted"})
}

// Admin is the doctor dashboard: every appointment plus blood group counts.
func (h *Handler) Admin(c *gin.Context, ident service.Identity) {
	overview, err := h.svc.AdminOverview(c.Request.Context(), ident)
	if err != nil {
		respondError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Admin dashboard",
		Data: gin.H{
			"appointments":       overview.Appointments,
			"num_appointments":   overview.Total,
			"blood_group_counts": overview.BloodGroupCounts,
			"account":            ident.Account,
		},
	})
}

// Takeup approves a booked appointment and returns to the dashboard.
func (h *Handler) Takeup(c *gin.Context, ident service.Identity) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.Approve(c.Request.Context(), ident, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if res.AlreadyApproved {
		util.CallRedirect(c, pathAdmin, util.APISuccessParams{
			Msg:     service.MsgAlreadyApproved,
			Flashes: util.Flashes(util.FlashInfo, service.MsgAlreadyApproved),
		})
		return
	}
	util.CallRedirect(c, pathAdmin, util.APISuccessParams{
		Msg:     service.MsgApproved,
		Data:    gin.H{"appointment": res.Profile},
		Flashes: successFlash(service.MsgApproved),
	})
}
