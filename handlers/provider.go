package handlers

import (
	"github.com/librishq/libris/server"
	"github.com/librishq/libris/services/auth"
	"github.com/librishq/libris/services/jwt"
	"go.uber.org/fx"

	jwtmw "github.com/librishq/libris/middleware/jwt"
)

func RegisterRoutes(srv *server.Server, jwtService *jwt.Service, authHandler *AuthHandler, libraryHandler *LibraryHandler) {
	api := srv.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)

	requireJWT := jwtmw.RequireJWT(jwtService)
	authGroup.POST("/logout", authHandler.Logout, requireJWT)
	authGroup.GET("/profile", authHandler.Profile, requireJWT)

	requireAdmin := jwtmw.RequireRole(auth.RoleAdmin)

	authors := api.Group("/authors", requireJWT)
	authors.GET("", libraryHandler.ListAuthors)
	authors.GET("/:id", libraryHandler.GetAuthor)
	authors.POST("", libraryHandler.CreateAuthor, requireAdmin)
	authors.PUT("/:id", libraryHandler.UpdateAuthor, requireAdmin)
	authors.DELETE("/:id", libraryHandler.DeleteAuthor, requireAdmin)

	books := api.Group("/books", requireJWT)
	books.GET("", libraryHandler.ListBooks)
	books.GET("/:id", libraryHandler.GetBook)
	books.POST("", libraryHandler.CreateBook, requireAdmin)
	books.PUT("/:id", libraryHandler.UpdateBook, requireAdmin)
	books.DELETE("/:id", libraryHandler.DeleteBook, requireAdmin)

	loans := api.Group("/loans", requireJWT)
	loans.POST("", libraryHandler.Borrow)
	loans.POST("/:id/return", libraryHandler.Return)
	loans.GET("/mine", libraryHandler.MyLoans)
	loans.GET("/overdue", libraryHandler.OverdueLoans, requireAdmin)

	api.GET("/stats", libraryHandler.Stats, requireJWT, requireAdmin)
}

var Options = fx.Options(
	fx.Provide(NewAuthHandler),
	fx.Provide(NewLibraryHandler),
	fx.Invoke(RegisterRoutes),
)
