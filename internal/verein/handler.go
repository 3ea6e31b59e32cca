package verein

import (
	"fmt"
	"strings"

	"dernek-backend/internal/audit"
	"dernek-backend/internal/auth"
	"dernek-backend/internal/database"
	"dernek-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateVereinRequest struct {
	Name string `json:"name"`
	City string `json:"city"`
}

// POST /api/vereine (sadece super_admin)
func CreateVereinHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateVereinRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunlu")
		}

		verein := models.Verein{Name: body.Name, City: strings.TrimSpace(body.City), Aktiv: true}
		if err := database.DB.Create(&verein).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dernek kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			VereinID:    &verein.ID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "verein",
			EntityID:    verein.ID,
			Action:      models.AuditActionCreate,
			Description: "Dernek oluşturuldu: " + verein.Name,
			After:       verein,
		})

		return c.Status(fiber.StatusCreated).JSON(verein)
	}
}

// GET /api/vereine
func ListVereineHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var vereine []models.Verein
		if err := database.DB.Order("name ASC").Find(&vereine).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Dernekler listelenemedi")
		}
		return c.JSON(vereine)
	}
}

type CreateMemberRequest struct {
	VereinID     uint   `json:"verein_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	MemberNumber string `json:"member_number"`
	Email        string `json:"email"`
}

// POST /api/members
func CreateMemberHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateMemberRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		explicit := ""
		if body.VereinID != 0 {
			explicit = fmt.Sprint(body.VereinID)
		}
		vereinID, err := auth.ResolveVereinID(c, explicit)
		if err != nil {
			return err
		}

		body.FirstName = strings.TrimSpace(body.FirstName)
		body.LastName = strings.TrimSpace(body.LastName)
		if body.FirstName == "" || body.LastName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "first_name ve last_name zorunlu")
		}

		body.MemberNumber = strings.TrimSpace(body.MemberNumber)
		if body.MemberNumber != "" {
			// Aynı dernekte üye numarası tekil olmalı, yoksa eşleştirme güvenilmez
			var count int64
			database.DB.Model(&models.Member{}).
				Where("verein_id = ? AND member_number = ?", vereinID, body.MemberNumber).
				Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Bu üye numarası zaten kullanılıyor")
			}
		}

		member := models.Member{
			VereinID:     vereinID,
			FirstName:    body.FirstName,
			LastName:     body.LastName,
			MemberNumber: body.MemberNumber,
			Email:        strings.TrimSpace(strings.ToLower(body.Email)),
			Aktiv:        true,
			CreatedBy:    actor.ID,
		}

		if err := database.DB.Create(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üye kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			VereinID:    &vereinID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "member",
			EntityID:    member.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Üye oluşturuldu: %s %s (%s)", member.FirstName, member.LastName, member.MemberNumber),
			After:       member,
		})

		return c.Status(fiber.StatusCreated).JSON(member)
	}
}

// GET /api/members[?verein_id=1]
func ListMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		vereinID, err := auth.ResolveVereinID(c, c.Query("verein_id"))
		if err != nil {
			return err
		}

		var members []models.Member
		if err := database.DB.Where("verein_id = ?", vereinID).
			Order("last_name ASC, first_name ASC").
			Find(&members).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Üyeler listelenemedi")
		}

		return c.JSON(members)
	}
}

type CreateBankAccountRequest struct {
	VereinID uint   `json:"verein_id"`
	Name     string `json:"name"`
	IBAN     string `json:"iban"`
	BIC      string `json:"bic"`
}

// POST /api/bank-accounts
func CreateBankAccountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateBankAccountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		explicit := ""
		if body.VereinID != 0 {
			explicit = fmt.Sprint(body.VereinID)
		}
		vereinID, err := auth.ResolveVereinID(c, explicit)
		if err != nil {
			return err
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name zorunlu")
		}

		account := models.BankAccount{
			VereinID: vereinID,
			Name:     body.Name,
			IBAN:     strings.ReplaceAll(strings.ToUpper(body.IBAN), " ", ""),
			BIC:      strings.TrimSpace(body.BIC),
			Aktiv:    true,
		}

		if err := database.DB.Create(&account).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Banka hesabı kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			VereinID:    &vereinID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "bank_account",
			EntityID:    account.ID,
			Action:      models.AuditActionCreate,
			Description: "Banka hesabı oluşturuldu: " + account.Name,
			After:       account,
		})

		return c.Status(fiber.StatusCreated).JSON(account)
	}
}

// GET /api/bank-accounts[?verein_id=1]
func ListBankAccountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		vereinID, err := auth.ResolveVereinID(c, c.Query("verein_id"))
		if err != nil {
			return err
		}

		var accounts []models.BankAccount
		if err := database.DB.Where("verein_id = ?", vereinID).
			Order("name ASC").
			Find(&accounts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Banka hesapları listelenemedi")
		}

		return c.JSON(accounts)
	}
}
