package courseController

import (
	"fmt"
	"log"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services"
	"lms/utils"

	"github.com/gofiber/fiber/v2"
)

// GetUserCertificates lists the caller's certificates
func GetUserCertificates(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)

	var certificates []courseModels.Certificate
	if err := database.Database.Db.Where("user_id = ?", userID).
		Order("issued_at desc").Find(&certificates).Error; err != nil {
		log.Printf("Error fetching certificates: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully.", certificates)
}

// VerifyCertificate is the public lookup by verification id. No auth; this is
// the link printed on the certificate itself.
func VerifyCertificate(c *fiber.Ctx) error {
	verificationID := c.Locals("verificationId").(string)

	lc := services.NewLifecycle(database.Database.Db)
	cert, err := lc.FindCertificateByVerificationID(verificationID)
	if err != nil {
		return serviceError(c, err)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid.", fiber.Map{
		"studentName":    cert.StudentName,
		"courseName":     cert.CourseName,
		"issuedAt":       cert.IssuedAt,
		"verificationId": cert.VerificationID,
	})
}

// DownloadCertificate streams the rendered certificate PDF for one of the
// caller's certificates
func DownloadCertificate(c *fiber.Ctx) error {
	userID := c.Locals("userId").(uint)
	verificationID := c.Locals("verificationId").(string)

	var cert courseModels.Certificate
	if err := database.Database.Db.
		Where("verification_id = ? AND user_id = ?", verificationID, userID).
		First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", nil)
	}

	pdf, err := utils.RenderCertificate(cert.StudentName, cert.CourseName, cert.IssuedAt, cert.VerificationID)
	if err != nil {
		log.Printf("Error rendering certificate %s: %v", cert.VerificationID, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Certificate rendering failed, try again later!", nil)
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", cert.VerificationID))
	return c.Send(pdf)
}
