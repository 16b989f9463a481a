package middleware

import (
	stderrors "errors"

	"pettycash/internal/errors"
	"pettycash/internal/handlers"
	"pettycash/internal/models"
	"pettycash/internal/repositories"
	"pettycash/internal/services"

	"github.com/labstack/echo/v4"
)

// RequireAuth creates a middleware that requires a valid, unrevoked access
// token and stores the resolved models.Actor under handlers.ActorContextKey
func RequireAuth(tokenService services.TokenServiceInterface, revoked repositories.BlacklistedTokenRepositoryInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return handlers.SendError(c, errors.AuthMissingToken)
			}

			token, err := tokenService.ExtractTokenFromHeader(authHeader)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			claims, err := tokenService.ValidateAccessToken(token)
			if err != nil {
				if stderrors.Is(err, services.ErrExpiredToken) {
					return handlers.SendError(c, errors.AuthExpiredToken)
				}
				return handlers.SendError(c, errors.AuthInvalidTokenFormat)
			}

			isRevoked, err := revoked.IsBlacklisted(c.Request().Context(), claims.ID)
			if err != nil {
				return handlers.SendError(c, errors.SystemDatabaseError)
			}
			if isRevoked {
				return handlers.SendError(c, errors.AuthRevokedToken)
			}

			actor, err := services.ActorFromClaims(claims)
			if err != nil {
				return handlers.SendError(c, errors.AuthInvalidTokenFormat, errors.WithDetails("Invalid subject in token"))
			}

			c.Set(handlers.ActorContextKey, models.Actor(actor))
			c.Set(handlers.AccessTokenContextKey, token)

			return next(c)
		}
	}
}

// RequireApprover rejects requests whose actor lacks the approver role.
// It must run after RequireAuth.
func RequireApprover() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := c.Get(handlers.ActorContextKey).(models.Actor)
			if !ok || actor == nil {
				return handlers.SendError(c, errors.AuthMissingToken)
			}
			if !actor.IsApprover() {
				return handlers.SendError(c, errors.AuthInsufficientPermission)
			}
			return next(c)
		}
	}
}
