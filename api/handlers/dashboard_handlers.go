package handlers

import (
	"fmt"
	"net/http"

	"restaurant-manager/core/rbac"
	"restaurant-manager/core/session"
	"restaurant-manager/core/upstream"
	"restaurant-manager/core/urlctx"
)

type DashboardHandler struct {
	env *Env
}

func NewDashboardHandler(env *Env) *DashboardHandler {
	return &DashboardHandler{env: env}
}

// SalesSummary is placeholder data until the API exposes sales figures.
type SalesSummary struct {
	TodayTotal   int
	TodayChange  int
	ActiveOrders int
	Reservations int
}

type dashboardView struct {
	Sites       []upstream.Site
	CurrentSite *upstream.Site
	CompanyID   string
	SiteID      string
	Sales       SalesSummary
}

func (h *DashboardHandler) Home(w http.ResponseWriter, r *http.Request) error {
	if currentIdentity(r).Authenticated {
		return redirect(w, r, rbac.DashboardPath+"/")
	}
	return redirect(w, r, rbac.LoginPath)
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) error {
	uc := urlctx.FromContext(r.Context())
	sites := h.env.conn(r).Sites()
	list, err := sites.ListSites(r.Context(), uc.CompanyID)
	if err != nil {
		if upstream.IsKind(err, upstream.KindUnauthorized) {
			return err
		}
		h.env.Logger.Printf("DASHBOARD sites unavailable: %v", err)
		list = []upstream.Site{}
	}
	view := dashboardView{
		Sites:     list,
		CompanyID: uc.CompanyID,
		SiteID:    uc.SiteID,
		Sales:     SalesSummary{TodayTotal: 2580, TodayChange: 12, ActiveOrders: 16, Reservations: 8},
	}
	title := "Dashboard"
	if uc.HasSite {
		site, err := sites.Get(r.Context(), upstream.ID(uc.SiteID))
		if err != nil {
			h.env.Logger.Printf("DASHBOARD site %s unavailable: %v", uc.SiteID, err)
		} else {
			view.CurrentSite = site
			title = site.Name + " - Dashboard"
		}
	} else if uc.HasCompany {
		title = "Company Dashboard"
	}
	return h.env.render(w, r, "dashboard/index", title, view)
}

// SwitchSite stores the chosen site in the session and goes back to where
// the user came from.
func (h *DashboardHandler) SwitchSite(w http.ResponseWriter, r *http.Request) error {
	siteID := urlParam(r, "siteID")
	sites, err := h.env.conn(r).Sites().ListSites(r.Context(), "")
	if err != nil {
		flash(r, session.MessageError, fmt.Sprintf("Error switching site: %s", errorText(err)))
		return redirect(w, r, Referer(r, rbac.DashboardPath+"/"))
	}
	for _, s := range sites {
		if s.ID.String() == siteID {
			currentSession(r).SetCurrentSite(s.ID.String(), s.Name)
			flash(r, session.MessageSuccess, fmt.Sprintf("Switched to %s", s.Name))
			break
		}
	}
	return redirect(w, r, Referer(r, rbac.DashboardPath+"/"))
}

// errorText prefers the API's own explanation over the wrapped error text.
func errorText(err error) string {
	if apiErr, ok := upstream.AsAPIError(err); ok && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
