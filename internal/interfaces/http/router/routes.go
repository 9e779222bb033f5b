package router

import (
	"net/http"

	"github.com/dvd/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers served under the API prefix
type Handlers struct {
	QRLogin    *handler.QRLoginHandler
	Account    *handler.AccountHandler
	ConfigMenu *handler.ConfigMenuHandler
	System     *handler.SystemHandler
}

// DVDRoutes declares the /dvd group: QR login, crawl accounts and the
// platform configuration menu.
func DVDRoutes(h Handlers) Group {
	return Group{
		Prefix: "/dvd",
		Routes: []Route{
			{http.MethodPost, "/account/store/verify", h.QRLogin.VerifyStore},

			{http.MethodGet, "/account", h.Account.List},
			{http.MethodGet, "/account/:id", h.Account.GetByID},
			{http.MethodPost, "/account", h.Account.Create},
			{http.MethodPut, "/account/:id", h.Account.Update},
			{http.MethodDelete, "/account/:ids", h.Account.Delete},

			{http.MethodGet, "/config-menu/list", h.ConfigMenu.List},
			{http.MethodGet, "/config-menu/treeselect", h.ConfigMenu.TreeSelect},
			{http.MethodGet, "/config-menu/:id", h.ConfigMenu.GetByID},
			{http.MethodPost, "/config-menu", h.ConfigMenu.Create},
			{http.MethodPut, "/config-menu/:id", h.ConfigMenu.Update},
			{http.MethodDelete, "/config-menu/:id", h.ConfigMenu.Delete},
		},
		Groups: []Group{{
			Prefix: "/account/qrcode",
			Routes: []Route{
				{http.MethodPost, "/get", h.QRLogin.GetQRCode},
				{http.MethodPost, "/status", h.QRLogin.CheckStatus},
				{http.MethodPost, "/wait", h.QRLogin.WaitStatus},
				{http.MethodPost, "/send_code", h.QRLogin.SendCode},
				{http.MethodPost, "/submit_code", h.QRLogin.SubmitCode},
			},
		}},
	}
}

// SystemRoutes declares the /system group
func SystemRoutes(h Handlers) Group {
	return Group{
		Prefix: "/system",
		Routes: []Route{
			{http.MethodGet, "/info", h.System.GetSystemInfo},
			{http.MethodGet, "/ping", h.System.Ping},
		},
	}
}
