package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicart/globals"
	"medicart/models"
	"medicart/session"
)

// backend fakes the gateway-side services the checkout talks to.
type backend struct {
	srv *httptest.Server

	cartItems     string
	orderStatus   int
	orderBody     string
	paymentStatus int
	paymentBody   string

	orderCalls   int32
	paymentCalls int32
	clearCalls   int32
}

func newBackend(t *testing.T) *backend {
	b := &backend{
		cartItems:     `[{"id":1,"medicineId":10,"medicineName":"Paracetamol","price":600,"quantity":1}]`,
		orderStatus:   http.StatusOK,
		orderBody:     `{"id":77,"orderNumber":"ORD-77","status":"PENDING"}`,
		paymentStatus: http.StatusOK,
		paymentBody:   `{"paymentId":901,"transactionId":"TXN-901","status":"SUCCESS","amount":708}`,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.cartItems))
	})
	mux.HandleFunc("/api/cart/clear", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.clearCalls, 1)
	})
	mux.HandleFunc("/api/address", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":3,"name":"Asha Rao","isDefault":false},
			{"id":5,"name":"Asha Rao","isDefault":true}
		]`))
	})
	mux.HandleFunc("/api/orders/place", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.orderCalls, 1)
		w.WriteHeader(b.orderStatus)
		w.Write([]byte(b.orderBody))
	})
	mux.HandleFunc("/api/payment/process", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&b.paymentCalls, 1)
		w.WriteHeader(b.paymentStatus)
		w.Write([]byte(b.paymentBody))
	})
	mux.HandleFunc("/api/payment/901", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":901,"transactionId":"TXN-901","status":"SUCCESS","amount":708}`))
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func testHandler(t *testing.T) (*Handler, *backend, *session.MemStore) {
	b := newBackend(t)
	store := session.NewMemStore()
	h := NewHandler(store, b.srv.URL)
	h.Now = func() time.Time { return time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC) }
	return h, b, store
}

func authedRequest(method, target, userID string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	r.Header.Set("Authorization", "Bearer test-token")
	ctx := context.WithValue(r.Context(), globals.UserIDKey, userID)
	return r.WithContext(ctx)
}

func params(checkoutID string) httprouter.Params {
	return httprouter.Params{{Key: "checkoutId", Value: checkoutID}}
}

func startCheckout(t *testing.T, h *Handler) models.CheckoutSession {
	w := httptest.NewRecorder()
	h.StartCheckout(w, authedRequest(http.MethodPost, "/api/checkout", "42", nil), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var chk models.CheckoutSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chk))
	return chk
}

func TestStartCheckoutSnapshotsCartAndAddresses(t *testing.T) {
	h, _, _ := testHandler(t)
	chk := startCheckout(t, h)

	assert.Equal(t, models.StateSelectingMethod, chk.State)
	assert.Equal(t, "42", chk.UserID)
	// The default-flagged address wins over the first one.
	assert.Equal(t, int64(5), chk.AddressID)
	assert.Len(t, chk.Addresses, 2)
	assert.Equal(t, 600.0, chk.Valuation.Subtotal)
	assert.Equal(t, 108.0, chk.Valuation.TaxAmount)
	assert.Equal(t, 0.0, chk.Valuation.DeliveryFee)
	assert.Equal(t, 708.0, chk.Valuation.Total)
}

func TestStartCheckoutEmptyCart(t *testing.T) {
	h, b, _ := testHandler(t)
	b.cartItems = `[]`

	w := httptest.NewRecorder()
	h.StartCheckout(w, authedRequest(http.MethodPost, "/api/checkout", "42", nil), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Your cart is empty")
}

func TestGetCheckoutHidesOtherUsersSessions(t *testing.T) {
	h, _, _ := testHandler(t)
	chk := startCheckout(t, h)

	w := httptest.NewRecorder()
	h.GetCheckout(w, authedRequest(http.MethodGet, "/api/checkout/"+chk.ID, "999", nil), params(chk.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelectAddressUnknownID(t *testing.T) {
	h, _, _ := testHandler(t)
	chk := startCheckout(t, h)

	w := httptest.NewRecorder()
	h.SelectAddress(w,
		authedRequest(http.MethodPost, "/api/checkout/"+chk.ID+"/address", "42", map[string]int64{"addressId": 999}),
		params(chk.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Address not found")
}

func TestSelectAddressSwitchesWithinList(t *testing.T) {
	h, _, store := testHandler(t)
	chk := startCheckout(t, h)

	w := httptest.NewRecorder()
	h.SelectAddress(w,
		authedRequest(http.MethodPost, "/api/checkout/"+chk.ID+"/address", "42", map[string]int64{"addressId": 3}),
		params(chk.ID))
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := store.Get(context.Background(), chk.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.AddressID)
}

func selectMethod(t *testing.T, h *Handler, chkID, method string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.SelectMethod(w,
		authedRequest(http.MethodPost, "/api/checkout/"+chkID+"/method", "42", map[string]string{"method": method}),
		params(chkID))
	return w
}

func TestPayHappyPathUPI(t *testing.T) {
	h, b, store := testHandler(t)
	chk := startCheckout(t, h)

	require.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "upi").Code)

	w := httptest.NewRecorder()
	h.Pay(w,
		authedRequest(http.MethodPost, "/api/checkout/"+chk.ID+"/pay", "42", map[string]string{"upiId": "asha@okhdfcbank"}),
		params(chk.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out models.CheckoutSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, models.StateSucceeded, out.State)
	require.NotNil(t, out.Receipt)
	assert.Equal(t, int64(901), out.Receipt.PaymentID)
	assert.Equal(t, "TXN-901", out.Receipt.TransactionID)

	assert.Equal(t, int32(1), atomic.LoadInt32(&b.orderCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.paymentCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.clearCalls))

	stored, err := store.Get(context.Background(), chk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateSucceeded, stored.State)
}

func TestPayValidationErrorMakesNoCalls(t *testing.T) {
	h, b, _ := testHandler(t)
	chk := startCheckout(t, h)
	require.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "upi").Code)

	w := httptest.NewRecorder()
	h.Pay(w,
		authedRequest(http.MethodPost, "/api/checkout/"+chk.ID+"/pay", "42", map[string]string{"upiId": "bad"}),
		params(chk.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid UPI ID format")
	assert.Zero(t, atomic.LoadInt32(&b.orderCalls))
}

func TestPayOrderFailureSurfacesUpstreamMessage(t *testing.T) {
	h, b, store := testHandler(t)
	b.orderStatus = http.StatusBadRequest
	b.orderBody = `{"error":"Insufficient stock"}`

	chk := startCheckout(t, h)
	require.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "upi").Code)

	w := httptest.NewRecorder()
	h.Pay(w,
		authedRequest(http.MethodPost, "/api/checkout/"+chk.ID+"/pay", "42", map[string]string{"upiId": "asha@okhdfcbank"}),
		params(chk.ID))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock")
	assert.Zero(t, atomic.LoadInt32(&b.paymentCalls))

	stored, err := store.Get(context.Background(), chk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateFailed, stored.State)
	assert.Equal(t, "Insufficient stock", stored.FailureReason)
}

func TestPayLockedCheckoutConflicts(t *testing.T) {
	h, _, store := testHandler(t)
	chk := startCheckout(t, h)
	require.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "upi").Code)

	locked, err := store.TryLock(context.Background(), chk.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	w := httptest.NewRecorder()
	h.Pay(w,
		authedRequest(http.MethodPost, "/api/checkout/"+chk.ID+"/pay", "42", map[string]string{"upiId": "asha@okhdfcbank"}),
		params(chk.ID))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaySecondSubmissionAfterSuccessConflicts(t *testing.T) {
	h, _, _ := testHandler(t)
	chk := startCheckout(t, h)
	require.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "upi").Code)

	pay := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.Pay(w,
			authedRequest(http.MethodPost, "/api/checkout/"+chk.ID+"/pay", "42", map[string]string{"upiId": "asha@okhdfcbank"}),
			params(chk.ID))
		return w
	}

	require.Equal(t, http.StatusOK, pay().Code)
	assert.Equal(t, http.StatusConflict, pay().Code)
}

func TestSelectMethodNetBankingAndCard(t *testing.T) {
	h, _, _ := testHandler(t)
	chk := startCheckout(t, h)

	assert.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "netbanking").Code)
	assert.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "CREDIT_CARD").Code)
	assert.Equal(t, http.StatusBadRequest, selectMethod(t, h, chk.ID, "wallet").Code)
}

func TestUPIQRRendersPNG(t *testing.T) {
	h, _, _ := testHandler(t)
	chk := startCheckout(t, h)
	require.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "upi").Code)

	w := httptest.NewRecorder()
	h.UPIQR(w, authedRequest(http.MethodGet, "/api/checkout/"+chk.ID+"/upiqr", "42", nil), params(chk.ID))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	// PNG magic bytes.
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
}

func TestUPIQRRejectsNonUPICheckout(t *testing.T) {
	h, _, _ := testHandler(t)
	chk := startCheckout(t, h)
	require.Equal(t, http.StatusOK, selectMethod(t, h, chk.ID, "CREDIT_CARD").Code)

	w := httptest.NewRecorder()
	h.UPIQR(w, authedRequest(http.MethodGet, "/api/checkout/"+chk.ID+"/upiqr", "42", nil), params(chk.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentStatusProxy(t *testing.T) {
	h, _, _ := testHandler(t)

	w := httptest.NewRecorder()
	h.PaymentStatus(w,
		authedRequest(http.MethodGet, "/api/payment/901/status", "42", nil),
		httprouter.Params{{Key: "paymentId", Value: "901"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TXN-901")

	w = httptest.NewRecorder()
	h.PaymentStatus(w,
		authedRequest(http.MethodGet, "/api/payment/abc/status", "42", nil),
		httprouter.Params{{Key: "paymentId", Value: "abc"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
