package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bakery/internal/domain"
	"github.com/vladislavdragonenkov/bakery/internal/service/checkout"
)

const (
	flashOrderPlaced   = "Order placed successfully! Total: %s"
	flashMenuItemAdded = "Menu item added successfully!"
)

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index", pageData{Title: "Home"})
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", pageData{Title: "About"})
}

func (h *Handler) contact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "contact", pageData{Title: "Contact"})
}

func (h *Handler) menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListMenu(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "menu", pageData{Title: "Menu", Items: items})
}

func (h *Handler) checkoutForm(w http.ResponseWriter, r *http.Request) {
	h.renderCheckout(w, r, http.StatusOK, pageData{})
}

func (h *Handler) checkoutSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	form := formValues{Username: r.PostForm.Get("username")}
	rawIDs := r.PostForm["item_ids"]
	form.Selected = selectedSet(rawIDs)

	order, err := h.orders.SubmitOrder(r.Context(), form.Username, checkout.ParseItemIDs(rawIDs))
	if err != nil {
		if domain.IsValidation(err) {
			h.renderCheckoutInvalid(w, r, form, err)
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.flash.set(w, flashSuccess, fmt.Sprintf(flashOrderPlaced, domain.FormatPrice(order.TotalPrice)))
	http.Redirect(w, r, "/bill/"+strconv.FormatInt(order.ID, 10), http.StatusSeeOther)
}

func (h *Handler) renderCheckoutInvalid(w http.ResponseWriter, r *http.Request, form formValues, err error) {
	requestLogger(r, h.logger).WithError(err).Info("checkout rejected")
	h.renderCheckout(w, r, http.StatusBadRequest, pageData{Error: validationMessage(err), Form: form})
}

func (h *Handler) renderCheckout(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	items, err := h.catalog.ListMenu(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	data.Title = "Checkout"
	data.Items = items
	h.render(w, r, status, "checkout", data)
}

func (h *Handler) bill(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(mux.Vars(r)["orderId"], 10, 64)
	if err != nil {
		h.notFound(w, r)
		return
	}

	order, err := h.orders.GetBill(r.Context(), orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			h.notFound(w, r)
			return
		}
		h.serverError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "bill", pageData{Title: "Bill", Order: order})
}

func (h *Handler) addMenuItemForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "add_menu_item", pageData{Title: "Add Menu Item"})
}

func (h *Handler) addMenuItemSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "The submitted form could not be read.")
		return
	}

	form := formValues{Name: r.PostForm.Get("name"), Price: r.PostForm.Get("price")}

	item, err := h.catalog.AddMenuItem(r.Context(), form.Name, form.Price)
	if err != nil {
		if domain.IsValidation(err) {
			requestLogger(r, h.logger).WithError(err).Info("menu item rejected")
			h.render(w, r, http.StatusBadRequest, "add_menu_item", pageData{
				Title: "Add Menu Item",
				Error: validationMessage(err),
				Form:  form,
			})
			return
		}
		h.serverError(w, r, err)
		return
	}

	requestLogger(r, h.logger).WithField("menu_item_id", item.ID).Debug("menu item created via form")
	h.flash.set(w, flashSuccess, flashMenuItemAdded)
	http.Redirect(w, r, "/menu", http.StatusSeeOther)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusMethodNotAllowed, "This method is not allowed for the requested page.")
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="bakery admin", charset="UTF-8"`)
	h.renderError(w, r, http.StatusUnauthorized, "Administrator credentials are required.")
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r, h.logger).WithError(err).Error("request failed")
	h.serverErrorPage(w, r)
}

func (h *Handler) serverErrorPage(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusInternalServerError, "Something went wrong on our side. Please try again later.")
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error", pageData{
		Title:   http.StatusText(status),
		Status:  status,
		Message: message,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	data.Flash = h.flash.pop(w, r)
	data.RequestID = requestIDFrom(r.Context())

	body, err := h.pages.execute(page, data)
	if err != nil {
		requestLogger(r, h.logger).WithError(err).WithField("page", page).Error("render template")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		requestLogger(r, h.logger).WithError(err).Debug("write response body")
	}
}

func validationMessage(err error) string {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return err.Error()
}

func selectedSet(raw []string) map[int64]bool {
	selected := make(map[int64]bool, len(raw))
	for _, value := range raw {
		if id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			selected[id] = true
		}
	}
	return selected
}

func requestLogger(r *http.Request, fallback *log.Entry) *log.Entry {
	if id := requestIDFrom(r.Context()); id != "" {
		return fallback.WithField("request_id", id)
	}
	return fallback
}
