package router

import (
	_ "github.com/dvd/backend/docs"
	"github.com/dvd/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SwaggerPath is where the API documentation is served
const SwaggerPath = "/swagger/*any"

// MountSwagger serves the generated API documentation outside API versioning
func MountSwagger(engine *gin.Engine, cfg middleware.SwaggerConfig) {
	engine.GET(SwaggerPath, middleware.SwaggerProtection(cfg), ginSwagger.WrapHandler(swaggerFiles.Handler))
}
