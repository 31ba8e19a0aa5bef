package main

import "estatehub/internal/app"

// @title        EstateHub API
// @version      1.0
// @description  Real-estate listings with email-verified accounts and password reset.
// @BasePath     /
// @securityDefinitions.apikey  CookieAuth
// @in                          header
// @name                        auth-token
func main() {
	app.Run()
}
