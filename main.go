package main

import "github.com/killallgit/blog-api/cmd"

// @title           Blog API
// @version         1.0.0
// @description     Generates blog posts from uploaded audio and video and serves sites, posts, comments and reactions
// @termsOfService  http://swagger.io/terms/
// @contact.name    API Support
// @contact.email   support@example.com
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        Authorization
// @description                 Bearer access token from the identity provider, "Bearer <token>"
func main() {
	cmd.Execute()
}
