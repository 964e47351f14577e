package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bunkguard/core/semester"
	"github.com/trezcool/bunkguard/core/subject"
	"github.com/trezcool/bunkguard/core/user"
)

const objectContextKey = "object"

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.IsAdmin && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// ctxUserOrAdminMiddleware loads the `:id` user, visible to themselves & to admins.
func ctxUserOrAdminMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			if ctx.Param("id") == ctxUsr.ID || ctxUsr.IsAdmin() {
				if usr, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id")); err == nil {
					ctx.Set(objectContextKey, usr)
					return next(ctx)
				} else if errors.Cause(err) != user.ErrNotFound {
					return errors.Wrap(err, "finding user by ID")
				}
			}
			return errHttpNotFound
		}
	}
}

// ownSubjectMiddleware loads the `:id` subject of the authenticated user.
func ownSubjectMiddleware(svc subject.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			subj, err := svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == subject.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding subject by ID")
			}
			ctx.Set(objectContextKey, subj)
			return next(ctx)
		}
	}
}

// ownSemesterMiddleware loads the `:id` semester of the authenticated user.
func ownSemesterMiddleware(svc semester.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			sem, err := svc.Get(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == semester.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding semester by ID")
			}
			ctx.Set(objectContextKey, sem)
			return next(ctx)
		}
	}
}
