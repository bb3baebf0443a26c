package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/auth"
	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/catalog"
	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/handler"
	"github.com/animationmaslepeau-cmd/Gestionnaire-de-stocks-Epeau/internal/order"
)

// NewRouter wires repositories, services and handlers onto a chi mux.
func NewRouter(pool *pgxpool.Pool, managerPassword string) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	catalogRepo := catalog.NewRepository(pool)
	catalogSvc := catalog.NewCatalog(catalogRepo)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)

	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo)
	orderHandler := handler.NewOrderHandler(orderSvc)

	authHandler := handler.NewAuthHandler(auth.NewManager(managerPassword))

	r.Post("/manager/login", authHandler.Login)
	r.Get("/cycle", orderHandler.GetCycle)

	r.Get("/services", catalogHandler.ListServices)
	r.Get("/services/{id}/items", catalogHandler.OrderableItems)
	r.Get("/services/{id}/order", orderHandler.GetServiceOrder)
	r.Get("/categories", catalogHandler.ListCategories)

	r.Get("/items", catalogHandler.ListItems)
	r.Get("/items/low-stock", catalogHandler.LowStockItems)
	r.Get("/items/{id}", catalogHandler.GetItem)
	r.Post("/items", catalogHandler.CreateItem)
	r.Put("/items/{id}", catalogHandler.UpdateItem)
	r.Delete("/items/{id}", catalogHandler.DeleteItem)

	r.Get("/orders", orderHandler.ListOrders)
	r.Post("/orders", orderHandler.SubmitOrder)
	r.Post("/orders/validate", orderHandler.ValidateOrders)
	r.Get("/consumption/averages", orderHandler.ConsumptionAverages)

	return r
}
