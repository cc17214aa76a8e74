package internal

import (
	"net/http"

	"coronabot/internal/controllers"
	"coronabot/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController, commandController *controllers.CommandController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/subscriptions", http.HandlerFunc(apiController.GetSubscriptions))
	routers.Get("/countries", http.HandlerFunc(apiController.GetCountries))

	routers.Get("/corona/summary", http.HandlerFunc(commandController.Summary))
	routers.Get("/corona/rank", http.HandlerFunc(commandController.Rank))
	routers.Get("/corona/status", http.HandlerFunc(commandController.Status))
	routers.Get("/corona/subscriptions", http.HandlerFunc(commandController.ListSubscriptions))
	routers.Post("/corona/subscribe", http.HandlerFunc(commandController.Subscribe))
	routers.Post("/corona/unsubscribe", http.HandlerFunc(commandController.Unsubscribe))
	return routers
}
