package utils

import (
	"fmt"
	"time"

	"lms/config"

	"github.com/go-resty/resty/v2"
)

// RenderCertificateRequest is the data contract with the external rendering
// service; this side never does any drawing
type RenderCertificateRequest struct {
	StudentName    string `json:"student_name"`
	CourseName     string `json:"course_name"`
	IssuedAt       string `json:"issued_at"`
	VerificationID string `json:"verification_id"`
}

// RenderCertificate asks the rendering collaborator for the certificate file
// bytes (PDF). The caller streams them to the client.
func RenderCertificate(studentName, courseName string, issuedAt time.Time, verificationID string) ([]byte, error) {
	client := resty.New().SetTimeout(15 * time.Second)

	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(RenderCertificateRequest{
			StudentName:    studentName,
			CourseName:     courseName,
			IssuedAt:       issuedAt.Format(time.RFC3339),
			VerificationID: verificationID,
		}).
		Post(config.AppConfig.CertRendererURL)
	if err != nil {
		return nil, fmt.Errorf("failed to reach certificate renderer: %v", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("certificate renderer returned code: %d", resp.StatusCode())
	}
	return resp.Body(), nil
}
