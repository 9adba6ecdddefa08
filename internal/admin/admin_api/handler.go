package admin_api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"raid-reserve/internal/auth"
	"raid-reserve/internal/logger"
	"raid-reserve/internal/metrics"
	"raid-reserve/internal/models"
	"raid-reserve/internal/reservation/db"
	"raid-reserve/internal/web"
)

// Service is the slice of the reservation service the operator routes need.
type Service interface {
	Today() string
	SetCode(raid, day, code string) error
	AdminList(raid, sortMode string) ([]models.Application, error)
	ToggleConfirm(id int64, confirmed bool) error
	SetComment(id int64, text string) error
	DeleteOne(id int64) error
	ClearToday(raid string) error
}

// Handler serves the secret-path admin area. The path segment is route
// configuration; the session marker check is the real gate.
type Handler struct {
	Service   Service
	Auth      *auth.Manager
	AdminKey  string
	AdminBase string
	Logger    *logger.Logger
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(h.AdminBase, func(r chi.Router) {
		r.Get("/", h.Root)
		r.Get("/login", h.LoginForm)
		r.Post("/login", h.Login)
		r.Get("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAdmin(h.loginPath()))
			r.Get("/raid", h.Landing)
			r.Post("/code", h.SetCode)
			r.Get("/list", h.List)
			r.Post("/confirm", h.Confirm)
			r.Post("/comment", h.Comment)
			r.Post("/delete", h.Delete)
			r.Post("/clear", h.Clear)
		})
	})
}

func (h *Handler) loginPath() string {
	return h.AdminBase + "/login"
}

func (h *Handler) listPath(raid, sortMode string) string {
	return h.AdminBase + "/list?raid=" + url.QueryEscape(raid) + "&sort=" + url.QueryEscape(sortMode)
}

type loginPage struct {
	AdminBase string
	Error     string
}

type landingPage struct {
	AdminBase string
	Day       string
	Raids     []models.RaidOption
}

type listPage struct {
	AdminBase      string
	Raid           models.RaidOption
	Day            string
	Sort           string
	SortToggleURL  string
	Apps           []models.Application
	ConfirmedCount int
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.AdminCookie); err == nil {
		if h.Auth.VerifyAdminToken(r.Context(), cookie.Value) == nil {
			http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
			return
		}
	}
	http.Redirect(w, r, h.loginPath(), http.StatusSeeOther)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	web.Render(w, http.StatusOK, "admin_login.html", loginPage{AdminBase: h.AdminBase})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.FormValue("key"))
	if h.AdminKey == "" || key != h.AdminKey {
		metrics.AdminLoginsTotal.WithLabelValues("rejected").Inc()
		h.Logger.Warn("ADMIN", "Rejected operator login attempt")
		web.Render(w, http.StatusOK, "admin_login.html", loginPage{
			AdminBase: h.AdminBase,
			Error:     "Incorrect key.",
		})
		return
	}

	token, expires, err := h.Auth.IssueAdminToken(r.Context())
	if err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("Failed to issue admin session: %v", err))
		web.Render(w, http.StatusInternalServerError, "admin_login.html", loginPage{
			AdminBase: h.AdminBase,
			Error:     "Something went wrong. Please try again.",
		})
		return
	}

	metrics.AdminLoginsTotal.WithLabelValues("ok").Inc()
	h.Logger.Info("ADMIN", "Operator logged in")
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.AdminCookie); err == nil {
		h.Auth.RevokeAdminToken(r.Context(), cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	h.Logger.Info("ADMIN", "Operator logged out")
	http.Redirect(w, r, h.loginPath(), http.StatusSeeOther)
}

func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	web.Render(w, http.StatusOK, "admin_raid.html", landingPage{
		AdminBase: h.AdminBase,
		Day:       h.Service.Today(),
		Raids:     models.RaidOptions,
	})
}

func (h *Handler) SetCode(w http.ResponseWriter, r *http.Request) {
	raid := r.FormValue("raid")
	code := strings.TrimSpace(r.FormValue("code"))
	if !models.ValidRaid(raid) || code == "" {
		http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
		return
	}
	if err := h.Service.SetCode(raid, h.Service.Today(), code); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("Failed to set code for %s: %v", raid, err))
	}
	http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	raid, ok := models.RaidByKey(r.URL.Query().Get("raid"))
	if !ok {
		http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
		return
	}
	sortMode := r.URL.Query().Get("sort")
	if sortMode != db.SortGrade {
		sortMode = db.SortTime
	}

	apps, err := h.Service.AdminList(raid.Key, sortMode)
	if err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("Listing failed for %s: %v", raid.Key, err))
		http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
		return
	}

	toggled := db.SortGrade
	if sortMode == db.SortGrade {
		toggled = db.SortTime
	}

	confirmed := 0
	for _, a := range apps {
		if a.Confirmed {
			confirmed++
		}
	}
	web.Render(w, http.StatusOK, "admin_list.html", listPage{
		AdminBase:      h.AdminBase,
		Raid:           raid,
		Day:            h.Service.Today(),
		Sort:           sortMode,
		SortToggleURL:  h.listPath(raid.Key, toggled),
		Apps:           apps,
		ConfirmedCount: confirmed,
	})
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	if id, err := strconv.ParseInt(r.FormValue("id"), 10, 64); err == nil {
		confirmed := r.FormValue("confirmed") == "1"
		if err := h.Service.ToggleConfirm(id, confirmed); err != nil {
			h.Logger.Error("ADMIN", fmt.Sprintf("Confirm toggle failed for %d: %v", id, err))
		}
	}
	h.redirectBack(w, r)
}

func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	if id, err := strconv.ParseInt(r.FormValue("id"), 10, 64); err == nil {
		if err := h.Service.SetComment(id, r.FormValue("comment")); err != nil {
			h.Logger.Error("ADMIN", fmt.Sprintf("Comment update failed for %d: %v", id, err))
		}
	}
	h.redirectBack(w, r)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if id, err := strconv.ParseInt(r.FormValue("id"), 10, 64); err == nil {
		if err := h.Service.DeleteOne(id); err != nil {
			h.Logger.Error("ADMIN", fmt.Sprintf("Delete failed for %d: %v", id, err))
		}
	}
	h.redirectBack(w, r)
}

func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	raid := r.FormValue("raid")
	if !models.ValidRaid(raid) {
		http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
		return
	}
	if err := h.Service.ClearToday(raid); err != nil {
		h.Logger.Error("ADMIN", fmt.Sprintf("Clear failed for %s: %v", raid, err))
	}
	h.redirectBack(w, r)
}

// redirectBack returns the operator to the listing they were acting on,
// falling back to the landing page when the raid context is missing.
func (h *Handler) redirectBack(w http.ResponseWriter, r *http.Request) {
	raid := r.FormValue("raid")
	sortMode := r.FormValue("sort")
	if sortMode != db.SortGrade {
		sortMode = db.SortTime
	}
	if models.ValidRaid(raid) {
		http.Redirect(w, r, h.listPath(raid, sortMode), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, h.AdminBase+"/raid", http.StatusSeeOther)
}
