package events

import (
	"fmt"
	"strings"
	"time"

	"dernek-backend/internal/audit"
	"dernek-backend/internal/auth"
	"dernek-backend/internal/database"
	"dernek-backend/internal/financial"
	"dernek-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CreateEventRequest struct {
	VereinID  uint    `json:"verein_id"`
	Title     string  `json:"title"`
	StartDate string  `json:"start_date"` // "2006-01-02"
	Location  string  `json:"location"`
	Price     float64 `json:"price"`
}

// POST /api/events
func CreateEventHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var body CreateEventRequest
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

		body.Title = strings.TrimSpace(body.Title)
		if body.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title zorunlu")
		}

		startDate, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "start_date geçersiz (YYYY-MM-DD bekleniyor)")
		}

		event := models.Event{
			VereinID:  vereinID,
			Title:     body.Title,
			StartDate: startDate,
			Location:  strings.TrimSpace(body.Location),
			Price:     body.Price,
			CreatedBy: actor.ID,
		}

		if err := database.DB.Create(&event).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Etkinlik kaydedilemedi")
		}

		return c.Status(fiber.StatusCreated).JSON(event)
	}
}

type CreateRegistrationRequest struct {
	MemberID uint     `json:"member_id"`
	Price    *float64 `json:"price"` // verilmezse etkinlik fiyatı
}

// POST /api/events/:id/registrations
func CreateRegistrationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var eventID uint
		if _, err := fmt.Sscan(c.Params("id"), &eventID); err != nil || eventID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz etkinlik ID")
		}

		var body CreateRegistrationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.MemberID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "member_id zorunlu")
		}

		var event models.Event
		if err := database.DB.First(&event, eventID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Etkinlik bulunamadı")
		}

		var member models.Member
		if err := database.DB.Where("id = ? AND verein_id = ?", body.MemberID, event.VereinID).First(&member).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Üye bulunamadı")
		}

		price := event.Price
		if body.Price != nil {
			price = *body.Price
		}

		reg := models.EventRegistration{
			EventID:       eventID,
			MemberID:      body.MemberID,
			Price:         price,
			PaymentStatus: models.EventPaymentStatusUnpaid,
			CreatedBy:     actor.ID,
		}

		if err := database.DB.Create(&reg).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Kayıt oluşturulamadı")
		}

		return c.Status(fiber.StatusCreated).JSON(reg)
	}
}

type CreateEventPaymentRequest struct {
	Amount      float64 `json:"amount"`
	PaymentDate string  `json:"payment_date"` // "2006-01-02"
	Note        string  `json:"note"`
}

// POST /api/event-registrations/:id/payments
func CreateEventPaymentHandler(sumSvc *financial.SummaryService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var regID uint
		if _, err := fmt.Sscan(c.Params("id"), &regID); err != nil || regID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz kayıt ID")
		}

		var body CreateEventPaymentRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}
		if body.Amount <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "amount pozitif olmalı")
		}

		paymentDate, err := time.Parse("2006-01-02", body.PaymentDate)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "payment_date geçersiz (YYYY-MM-DD bekleniyor)")
		}

		var reg models.EventRegistration
		if err := database.DB.First(&reg, regID).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Etkinlik kaydı bulunamadı")
		}

		payment := models.EventPayment{
			RegistrationID: regID,
			Amount:         body.Amount,
			PaymentDate:    paymentDate,
			Note:           strings.TrimSpace(body.Note),
			CreatedBy:      actor.ID,
		}

		if err := database.DB.Create(&payment).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ödeme kaydedilemedi")
		}

		// Toplam ödeme kayıt ücretine ulaştıysa kaydı paid yap
		var totalPaid float64
		database.DB.Model(&models.EventPayment{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("registration_id = ?", regID).
			Scan(&totalPaid)

		newStatus := models.EventPaymentStatusPending
		if totalPaid >= reg.Price {
			newStatus = models.EventPaymentStatusPaid
		}
		database.DB.Model(&models.EventRegistration{}).
			Where("id = ?", regID).
			Update("payment_status", newStatus)

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      actor.ID,
			UserName:    actor.Name,
			EntityType:  "event_payment",
			EntityID:    payment.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Etkinlik ödemesi: kayıt #%d, %.2f EUR", regID, body.Amount),
			After:       payment,
		})

		// Etkinlik ödemeleri üye özetine girer
		sumSvc.InvalidateMember(c.Context(), reg.MemberID)

		return c.Status(fiber.StatusCreated).JSON(payment)
	}
}
