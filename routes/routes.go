package routes

import (
	"medicart/checkout"
	"medicart/middleware"
	"medicart/ratelim"
	"medicart/session"

	"github.com/julienschmidt/httprouter"
)

// AddCheckoutRoutes wires the checkout flow handlers to the router. Every
// route requires an authenticated caller.
func AddCheckoutRoutes(router *httprouter.Router, rateLimiter *ratelim.RateLimiter, store session.Store, upstreamBase string) {
	h := checkout.NewHandler(store, upstreamBase)

	authed := middleware.Chain(
		rateLimiter.Limit,
		middleware.Authenticate,
		middleware.RequireRoles("user", "admin"),
	)

	router.POST("/api/checkout", authed(h.StartCheckout))
	router.GET("/api/checkout/:checkoutId", authed(h.GetCheckout))
	router.POST("/api/checkout/:checkoutId/address", authed(h.SelectAddress))
	router.POST("/api/checkout/:checkoutId/method", authed(h.SelectMethod))
	router.POST("/api/checkout/:checkoutId/pay", authed(h.Pay))
	router.GET("/api/checkout/:checkoutId/upiqr", authed(h.UPIQR))

	router.GET("/api/payment/:paymentId/status", authed(h.PaymentStatus))
}
