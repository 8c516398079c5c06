// Package docs provides generated OpenAPI documentation.
//
// MarketMail API
//
//	@title			MarketMail API
//	@version		1.0
//	@description	Turns market price emails into structured price data and serves it back.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/Cank256/market-mail
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
package docs

//go:generate swag init -g ../cmd/marketmail/serve.go -o ./swagger --parseDependency --parseInternal
