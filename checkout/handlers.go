// Package checkout exposes the REST surface of the payment flow: starting a
// checkout from the cart, selecting the delivery address and payment method,
// and submitting the payment.
package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	qrcode "github.com/skip2/go-qrcode"

	"medicart/gate"
	"medicart/models"
	"medicart/payflow"
	"medicart/session"
	"medicart/upstream"
	"medicart/utils"
	"medicart/valuation"
)

const payLockTTL = 30 * time.Second

type Handler struct {
	Store        session.Store
	UpstreamBase string

	// Now stamps receipts; tests pin it.
	Now func() time.Time
}

func NewHandler(store session.Store, upstreamBase string) *Handler {
	return &Handler{Store: store, UpstreamBase: upstreamBase, Now: time.Now}
}

func (h *Handler) client(r *http.Request) (*upstream.Client, *session.Session) {
	sess := &session.Session{
		Token:  utils.GetTokenFromRequest(r),
		UserID: utils.GetUserIDFromRequest(r),
		Role:   utils.GetRoleFromRequest(r),
	}
	return upstream.New(h.UpstreamBase, sess), sess
}

// StartCheckout snapshots the cart, loads the delivery addresses and opens a
// new checkout session in method selection.
func (h *Handler) StartCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	client, sess := h.client(r)

	cart, err := client.GetCart(ctx)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	if cart.IsEmpty() {
		utils.RespondWithError(w, http.StatusBadRequest, "Your cart is empty")
		return
	}

	g := gate.New()
	if err := g.Load(ctx, client); err != nil {
		respondUpstreamError(w, err)
		return
	}

	now := h.now()
	chk := &models.CheckoutSession{
		ID:        utils.GetUUID(),
		UserID:    sess.UserID,
		State:     models.StateSelectingMethod,
		AddressID: g.SelectedID(),
		Addresses: g.Addresses(),
		Cart:      cart,
		Valuation: valuation.Valuate(cart.Lines),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Store.Put(ctx, chk); err != nil {
		log.Printf("checkout start: persist: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to start checkout")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, chk)
}

// GetCheckout returns the session. A stale cart snapshot is refreshed while
// the checkout has not yet started placing the order.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	chk, ok := h.load(w, r, ps)
	if !ok {
		return
	}

	if chk.Cart.Status != models.CartReady &&
		(chk.State == models.StateSelectingMethod || chk.State == models.StateCapturingDetails) {
		client, _ := h.client(r)
		cart, err := client.GetCart(ctx)
		if err == nil {
			chk.Cart = cart
			chk.Valuation = valuation.Valuate(cart.Lines)
			chk.UpdatedAt = h.now()
			if err := h.Store.Put(ctx, chk); err != nil {
				log.Printf("checkout %s: persist refreshed cart: %v", chk.ID, err)
			}
		} else {
			log.Printf("checkout %s: cart refresh: %v", chk.ID, err)
		}
	}

	utils.RespondWithJSON(w, http.StatusOK, chk)
}

// SelectAddress changes the delivery address to one of the loaded ones.
func (h *Handler) SelectAddress(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	chk, ok := h.load(w, r, ps)
	if !ok {
		return
	}

	var body struct {
		AddressID int64 `json:"addressId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if chk.State.InFlight() || chk.State.IsTerminal() {
		utils.RespondWithError(w, http.StatusConflict, "Checkout can no longer change address")
		return
	}

	g := gate.Restore(chk.Addresses, chk.AddressID)
	if err := g.Select(body.AddressID); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Address not found")
		return
	}

	chk.AddressID = g.SelectedID()
	chk.UpdatedAt = h.now()
	if err := h.Store.Put(ctx, chk); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save checkout")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, chk)
}

// SelectMethod records the payment method and moves into detail capture.
func (h *Handler) SelectMethod(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	chk, ok := h.load(w, r, ps)
	if !ok {
		return
	}

	var body struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	method, ok2 := models.ParsePaymentMethod(body.Method)
	if !ok2 {
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported payment method")
		return
	}

	flow := &payflow.Flow{Now: h.now}
	if err := flow.SelectMethod(chk, method); err != nil {
		respondFlowError(w, err)
		return
	}

	if err := h.Store.Put(ctx, chk); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save checkout")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, chk)
}

// Pay validates the captured details and runs the order/payment sequence.
// A per-checkout lock rejects concurrent submissions for the same session.
func (h *Handler) Pay(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx := r.Context()
	chk, ok := h.load(w, r, ps)
	if !ok {
		return
	}

	var details models.PaymentDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	locked, err := h.Store.TryLock(ctx, chk.ID, payLockTTL)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to start payment")
		return
	}
	if !locked {
		utils.RespondWithError(w, http.StatusConflict, "A payment for this checkout is already in progress")
		return
	}
	defer h.Store.Unlock(ctx, chk.ID)

	client, _ := h.client(r)
	flow := &payflow.Flow{
		Orders:   client,
		Payments: client,
		Cart:     client,
		Now:      h.now,
		OnTransition: func(s *models.CheckoutSession) error {
			return h.Store.Put(ctx, s)
		},
	}

	if err := flow.Submit(ctx, chk, details); err != nil {
		respondFlowError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, chk)
}

// UPIQR renders the checkout total as a UPI intent QR code, so the amount
// on screen and the amount encoded can never drift apart.
func (h *Handler) UPIQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	chk, ok := h.load(w, r, ps)
	if !ok {
		return
	}
	if chk.Method != models.MethodUPI {
		utils.RespondWithError(w, http.StatusBadRequest, "Checkout is not using UPI")
		return
	}

	vpa := os.Getenv("MEDICART_VPA")
	if vpa == "" {
		vpa = "medicart@okaxis"
	}

	q := url.Values{}
	q.Set("pa", vpa)
	q.Set("pn", "Medicart")
	q.Set("am", strconv.FormatFloat(chk.Valuation.Total, 'f', 2, 64))
	q.Set("cu", "INR")
	q.Set("tn", "Medicart order")

	png, err := qrcode.Encode("upi://pay?"+q.Encode(), qrcode.Medium, 256)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// PaymentStatus proxies a payment lookup for reconciliation screens.
func (h *Handler) PaymentStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	paymentID, err := strconv.ParseInt(ps.ByName("paymentId"), 10, 64)
	if err != nil || paymentID <= 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid payment id")
		return
	}

	client, _ := h.client(r)
	payment, err := client.GetPayment(r.Context(), paymentID)
	if err != nil {
		respondUpstreamError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, payment)
}

// load fetches the checkout named in the route and enforces ownership.
// Unknown ids and other users' checkouts both come back 404.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (*models.CheckoutSession, bool) {
	id := ps.ByName("checkoutId")
	chk, err := h.Store.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Checkout not found")
		return nil, false
	}
	if err != nil {
		log.Printf("checkout %s: load: %v", id, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load checkout")
		return nil, false
	}
	if chk.UserID != utils.GetUserIDFromRequest(r) {
		utils.RespondWithError(w, http.StatusNotFound, "Checkout not found")
		return nil, false
	}
	return chk, true
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func respondFlowError(w http.ResponseWriter, err error) {
	var ve *payflow.ValidationError
	if errors.As(err, &ve) {
		utils.RespondWithError(w, http.StatusBadRequest, ve.Message)
		return
	}

	switch {
	case errors.Is(err, payflow.ErrAlreadyCompleted):
		utils.RespondWithError(w, http.StatusConflict, "Payment already completed")
	case errors.Is(err, payflow.ErrPaymentInFlight):
		utils.RespondWithError(w, http.StatusConflict, "A payment for this checkout is already in progress")
	case errors.Is(err, payflow.ErrAddressRequired):
		utils.RespondWithError(w, http.StatusBadRequest, "Please select a delivery address")
	case errors.Is(err, payflow.ErrEmptyCart):
		utils.RespondWithError(w, http.StatusBadRequest, "Your cart is empty")
	case errors.Is(err, payflow.ErrUnsupportedMethod):
		utils.RespondWithError(w, http.StatusBadRequest, "Unsupported payment method")
	case errors.Is(err, payflow.ErrIllegalTransition):
		utils.RespondWithError(w, http.StatusConflict, "Checkout is not ready for this step")
	default:
		var se *payflow.StepError
		if errors.As(err, &se) {
			utils.RespondWithError(w, http.StatusBadGateway, se.Reason)
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, payflow.FallbackFailureMessage)
	}
}

func respondUpstreamError(w http.ResponseWriter, err error) {
	if errors.Is(err, upstream.ErrUnauthorized) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Please log in")
		return
	}
	var ue *upstream.Error
	if errors.As(err, &ue) {
		msg := ue.UpstreamMessage()
		if msg == "" {
			msg = fmt.Sprintf("Upstream request failed (%d)", ue.Status)
		}
		utils.RespondWithError(w, http.StatusBadGateway, msg)
		return
	}
	utils.RespondWithError(w, http.StatusBadGateway, "Upstream request failed")
}
