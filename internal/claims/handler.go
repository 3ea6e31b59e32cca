package claims

import (
	"fmt"
	"time"

	"dernek-backend/internal/audit"
	"dernek-backend/internal/auth"
	"dernek-backend/internal/database"
	"dernek-backend/internal/financial"
	"dernek-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateClaimRequest struct {
	VereinID    uint    `json:"verein_id"`
	MemberID    uint    `json:"member_id"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date"` // "2006-01-02"
	Description string  `json:"description"`
}

// POST /api/claims
func CreateClaimHandler(sumSvc *financial.SummaryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateClaimRequest
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

		if body.MemberID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "member_id zorunlu")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount pozitif olmalı")
		}

		dueDate, err := time.Parse("2006-01-02", body.DueDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "due_date geçersiz (YYYY-MM-DD bekleniyor)")
		}

		var member models.Member
		if err := database.DB.Where("id = ? AND verein_id = ?", body.MemberID, vereinID).First(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
		}

		claim := models.Claim{
			VereinID:    vereinID,
			MemberID:    body.MemberID,
			Amount:      body.Amount,
			DueDate:     dueDate,
			Status:      models.ClaimStatusUnpaid,
			Description: body.Description,
			Year:        dueDate.Year(),
			Month:       int(dueDate.Month()),
			CreatedBy:   actor.ID,
		}

		if err := database.DB.Create(&claim).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alacak kaydedilemedi")
		}

		_ = audit.WriteLog(audit.LogOptions{
			VereinID:    &vereinID,
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "claim",
			EntityID:    claim.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Alacak oluşturuldu: üye #%d, %.2f EUR, vade %s", claim.MemberID, claim.Amount, body.DueDate),
			After:       claim,
		})

		sumSvc.InvalidateMember(c.Context(), claim.MemberID)

		return c.Status(fiber.StatusCreated).JSON(claim)
	}
}

// GET /api/members/:id/claims?status=unpaid
func ListMemberClaimsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var memberID uint
		if _, err := fmt.Sscan(c.Params("id"), &memberID); err != nil || memberID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz üye ID")
		}

		dbq := database.DB.Where("member_id = ?", memberID)
		if status := c.Query("status"); status != "" {
			if status != string(models.ClaimStatusUnpaid) && status != string(models.ClaimStatusPaid) {
				return fiber.NewError(fiber.StatusBadRequest, "status geçersiz")
			}
			dbq = dbq.Where("status = ?", status)
		}

		var claims []models.Claim
		if err := dbq.Order("due_date ASC, id ASC").Find(&claims).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Alacaklar listelenemedi")
		}

		return c.JSON(claims)
	}
}

type PaymentResponse struct {
	models.Payment
	Allocations []models.PaymentAllocation `json:"allocations"`
}

// GET /api/members/:id/payments
func ListMemberPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var memberID uint
		if _, err := fmt.Sscan(c.Params("id"), &memberID); err != nil || memberID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz üye ID")
		}

		var payments []models.Payment
		if err := database.DB.Where("member_id = ?", memberID).
			Order("payment_date DESC, id DESC").
			Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödemeler listelenemedi")
		}

		ids := make([]uint, 0, len(payments))
		for _, p := range payments {
			ids = append(ids, p.ID)
		}

		allocsByPayment := make(map[uint][]models.PaymentAllocation)
		if len(ids) > 0 {
			var allocs []models.PaymentAllocation
			if err := database.DB.Where("payment_id IN ?", ids).Find(&allocs).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Dağıtımlar listelenemedi")
			}
			for _, a := range allocs {
				allocsByPayment[a.PaymentID] = append(allocsByPayment[a.PaymentID], a)
			}
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for _, p := range payments {
			allocs := allocsByPayment[p.ID]
			if allocs == nil {
				allocs = make([]models.PaymentAllocation, 0)
			}
			resp = append(resp, PaymentResponse{Payment: p, Allocations: allocs})
		}

		return c.JSON(resp)
	}
}

// GET /api/members/:id/advance-payments
func ListMemberAdvancesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var memberID uint
		if _, err := fmt.Sscan(c.Params("id"), &memberID); err != nil || memberID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz üye ID")
		}

		var advances []models.AdvancePayment
		if err := database.DB.Where("member_id = ?", memberID).
			Order("date DESC, id DESC").
			Find(&advances).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Avanslar listelenemedi")
		}

		return c.JSON(advances)
	}
}
