package reservation_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"raid-reserve/internal/auth"
	"raid-reserve/internal/logger"
	"raid-reserve/internal/models"
	"raid-reserve/internal/reservation"
	"raid-reserve/internal/web"
)

// Service is the slice of the reservation service the viewer routes need.
type Service interface {
	Today() string
	CheckCode(raid, day, code string) (bool, error)
	Submit(req reservation.SubmitRequest) (int64, error)
	ListToday(raid string) ([]models.Application, error)
}

type Handler struct {
	Service Service
	Auth    *auth.Manager
	Logger  *logger.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/verify", h.VerifyForm)
	r.Post("/verify", h.VerifySubmit)
	r.Get("/reserve", h.ReserveForm)
	r.Post("/reserve", h.ReserveSubmit)
	r.Get("/check", h.Check)
	r.Get("/health", h.Health)
}

type verifyPage struct {
	Raid  models.RaidOption
	Day   string
	Error string
}

type reservePage struct {
	Raid     models.RaidOption
	Day      string
	Grades   []models.GradeOption
	MaxCount int
	Error    string
}

type checkPage struct {
	Raid           models.RaidOption
	Day            string
	Apps           []models.Application
	ConfirmedCount int
}

type messagePage struct {
	Message  string
	RetryURL string
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	web.Render(w, http.StatusOK, "index.html", struct {
		Day   string
		Raids []models.RaidOption
	}{
		Day:   h.Service.Today(),
		Raids: models.RaidOptions,
	})
}

func (h *Handler) VerifyForm(w http.ResponseWriter, r *http.Request) {
	raid, ok := models.RaidByKey(r.URL.Query().Get("raid"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	web.Render(w, http.StatusOK, "verify.html", verifyPage{
		Raid: raid,
		Day:  h.Service.Today(),
	})
}

func (h *Handler) VerifySubmit(w http.ResponseWriter, r *http.Request) {
	raid, ok := models.RaidByKey(r.FormValue("raid"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	day := h.Service.Today()
	matched, err := h.Service.CheckCode(raid.Key, day, r.FormValue("code"))
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Code check failed for %s: %v", raid.Key, err))
		web.Render(w, http.StatusInternalServerError, "message.html",
			messagePage{Message: "Something went wrong. Please try again."})
		return
	}
	if !matched {
		web.Render(w, http.StatusOK, "verify.html", verifyPage{
			Raid:  raid,
			Day:   day,
			Error: "Incorrect access code.",
		})
		return
	}

	token, expires, err := h.Auth.IssueViewerToken(raid.Key, day)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Failed to issue viewer token for %s: %v", raid.Key, err))
		web.Render(w, http.StatusInternalServerError, "message.html",
			messagePage{Message: "Something went wrong. Please try again."})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.AccessCookieName(raid.Key),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, "/reserve?raid="+url.QueryEscape(raid.Key), http.StatusSeeOther)
}

func (h *Handler) ReserveForm(w http.ResponseWriter, r *http.Request) {
	raid, ok := models.RaidByKey(r.URL.Query().Get("raid"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	day := h.Service.Today()
	if !h.Auth.HasViewerAccess(r, raid.Key, day) {
		http.Redirect(w, r, "/verify?raid="+url.QueryEscape(raid.Key), http.StatusSeeOther)
		return
	}
	web.Render(w, http.StatusOK, "reserve.html", reservePage{
		Raid:     raid,
		Day:      day,
		Grades:   models.GradeOptions,
		MaxCount: reservation.MaxCount,
		Error:    r.URL.Query().Get("reason"),
	})
}

func (h *Handler) ReserveSubmit(w http.ResponseWriter, r *http.Request) {
	raid, ok := models.RaidByKey(r.FormValue("raid"))
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	day := h.Service.Today()
	if !h.Auth.HasViewerAccess(r, raid.Key, day) {
		http.Redirect(w, r, "/verify?raid="+url.QueryEscape(raid.Key), http.StatusSeeOther)
		return
	}

	dealerCount, err := strconv.Atoi(r.FormValue("dealer_count"))
	if err != nil {
		h.redirectToForm(w, r, raid.Key, "dealer count must be a whole number")
		return
	}
	bufferCount, err := strconv.Atoi(r.FormValue("buffer_count"))
	if err != nil {
		h.redirectToForm(w, r, raid.Key, "buffer count must be a whole number")
		return
	}

	id, err := h.Service.Submit(reservation.SubmitRequest{
		Raid:        raid.Key,
		Grade:       r.FormValue("viewer_grade"),
		Nickname:    r.FormValue("nickname"),
		GroupName:   r.FormValue("group_name"),
		DealerCount: dealerCount,
		BufferCount: bufferCount,
	})

	var vErr *reservation.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.redirectToForm(w, r, raid.Key, vErr.Reason)
		return
	case errors.Is(err, reservation.ErrCodeNotSet):
		web.Render(w, http.StatusOK, "message.html",
			messagePage{Message: "Today's access code has not been set yet."})
		return
	case err != nil:
		h.Logger.Error("RESERVATION", fmt.Sprintf("Submit failed for %s: %v", raid.Key, err))
		web.Render(w, http.StatusInternalServerError, "message.html",
			messagePage{Message: "Something went wrong. Please try again."})
		return
	}

	h.Logger.Info("RESERVATION", fmt.Sprintf("Application %d accepted for raid %s", id, raid.Key))
	web.Render(w, http.StatusOK, "reserve_done.html", struct {
		Raid models.RaidOption
		Day  string
	}{Raid: raid, Day: day})
}

func (h *Handler) redirectToForm(w http.ResponseWriter, r *http.Request, raid, reason string) {
	http.Redirect(w, r,
		"/reserve?raid="+url.QueryEscape(raid)+"&reason="+url.QueryEscape(reason),
		http.StatusSeeOther)
}

func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	raid, ok := models.RaidByKey(r.URL.Query().Get("raid"))
	if !ok {
		web.Render(w, http.StatusOK, "check_select.html", struct {
			Raids []models.RaidOption
		}{Raids: models.RaidOptions})
		return
	}

	apps, err := h.Service.ListToday(raid.Key)
	if err != nil {
		h.Logger.Error("RESERVATION", fmt.Sprintf("Listing failed for %s: %v", raid.Key, err))
		web.Render(w, http.StatusInternalServerError, "message.html",
			messagePage{Message: "Something went wrong. Please try again."})
		return
	}

	confirmed := 0
	for _, a := range apps {
		if a.Confirmed {
			confirmed++
		}
	}
	web.Render(w, http.StatusOK, "check.html", checkPage{
		Raid:           raid,
		Day:            h.Service.Today(),
		Apps:           apps,
		ConfirmedCount: confirmed,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"date":   h.Service.Today(),
	})
}
