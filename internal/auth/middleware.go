package auth

import (
	"fmt"
	"strings"

	"dernek-backend/internal/config"
	"dernek-backend/internal/database"
	"dernek-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey   = "user_id"
	CtxUserNameKey = "user_name"
	CtxUserRoleKey = "user_role"
	CtxVereinIDKey = "verein_id"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header eksik")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization formatı 'Bearer <token>' olmalı")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("geçersiz imzalama yöntemi")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Geçersiz veya süresi dolmuş token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Token çözümlenemedi")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxUserRoleKey, claims.Role)
		c.Locals(CtxVereinIDKey, claims.VereinID)

		return c.Next()
	}
}

func RequireRole(allowedRoles ...models.UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roleVal := c.Locals(CtxUserRoleKey)
		role, ok := roleVal.(models.UserRole)
		if !ok {
			return fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
		}

		for _, r := range allowedRoles {
			if r == role {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "Bu işlem için yetkiniz yok")
	}
}

// Actor: yazma işlemini yapan kullanıcı. Servislere context üzerinden değil
// açık parametre olarak geçilir; denetim kayıtları bu bilgiyle yazılır.
type Actor struct {
	ID   uint
	Name string
}

// ActorFromCtx: JWT middleware'inin doldurduğu locals'tan aktörü çözer.
// Kullanıcı adı token'da taşınmadığı için veritabanından okunur.
func ActorFromCtx(c *fiber.Ctx) (Actor, error) {
	userID, ok := c.Locals(CtxUserIDKey).(uint)
	if !ok || userID == 0 {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Kullanıcı bulunamadı")
	}

	return Actor{ID: user.ID, Name: user.Name}, nil
}

// ResolveVereinID: verein_admin için token'daki derneği döner; super_admin
// dernek id'sini açıkça vermek zorundadır (query veya form alanı).
func ResolveVereinID(c *fiber.Ctx, explicit string) (uint, error) {
	roleVal := c.Locals(CtxUserRoleKey)
	role, ok := roleVal.(models.UserRole)
	if !ok {
		return 0, fiber.NewError(fiber.StatusForbidden, "Rol bilgisi alınamadı")
	}

	if role == models.RoleVereinAdmin {
		vVal := c.Locals(CtxVereinIDKey)
		vPtr, ok := vVal.(*uint)
		if !ok || vPtr == nil {
			return 0, fiber.NewError(fiber.StatusForbidden, "Dernek bilgisi bulunamadı")
		}
		return *vPtr, nil
	}

	// super_admin
	if explicit == "" {
		return 0, fiber.NewError(fiber.StatusBadRequest, "verein_id zorunlu")
	}
	var vid uint
	if _, err := fmt.Sscan(explicit, &vid); err != nil || vid == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "verein_id geçersiz")
	}
	return vid, nil
}
