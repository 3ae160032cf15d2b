package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/quotebook/estimate-system/internal/core/domain"
	"github.com/quotebook/estimate-system/internal/core/ports"
)

// Auth validates the JWT, reloads the account through resolver and injects
// user_id and role into the context. The role comes from the stored account
// so admin role changes apply before the token expires.
func Auth(jwtSecret string, resolver ports.PrincipalResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token, authorization denied")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
			}

			sub, _ := claims.GetSubject()
			if sub == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
			}

			p, err := resolver.Resolve(c.Request().Context(), sub)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token is not valid")
				}
				return err
			}
			if err := checkPrincipal(p); err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			c.Set("user_id", p.ID)
			c.Set("role", p.Role)

			return next(c)
		}
	}
}

// checkPrincipal mirrors the login gate for every authenticated request.
func checkPrincipal(p *ports.Principal) error {
	if !p.IsActive {
		return domain.ErrAccountInactive
	}
	if !domain.RequiresApproval(p.Role) {
		return nil
	}
	switch p.ApprovalStatus {
	case domain.ApprovalApproved:
		return nil
	case domain.ApprovalRejected:
		return domain.ErrAccountRejected
	default:
		return domain.ErrAccountPending
	}
}
