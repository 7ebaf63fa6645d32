package services

import (
	"errors"
	"fmt"

	"lms/models"
	courseModels "lms/models/course"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"gorm.io/gorm"
)

// SnapClient is the shared Midtrans Snap client
var SnapClient snap.Client

// InitMidtrans must be called during app bootstrap
func InitMidtrans(serverKey string, useProduction bool) {
	if useProduction {
		SnapClient.New(serverKey, midtrans.Production)
	} else {
		SnapClient.New(serverKey, midtrans.Sandbox)
	}
}

// Checkout is a payment-initiation result. Nothing is granted here; the
// enrollment or voucher appears only when the gateway webhook lands.
type Checkout struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// CreateCourseCheckout opens a gateway transaction for a course purchase
func (lc *Lifecycle) CreateCourseCheckout(userID, courseID uint) (*Checkout, error) {
	var user models.User
	if err := lc.Db.Where("id = ? AND is_deleted = false", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, err
	}

	var crs courseModels.Course
	if err := lc.Db.Where("id = ? AND is_deleted = false AND status = ?", courseID, "ACTIVE").
		First(&crs).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("course not found or not active")
		}
		return nil, err
	}

	var active courseModels.Enrollment
	err := lc.Db.Where("user_id = ? AND course_id = ? AND status = ?",
		userID, courseID, courseModels.EnrollmentActive).First(&active).Error
	if err == nil {
		return nil, NewConflictError("already enrolled")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	orderID := fmt.Sprintf("course-%d-%s", courseID, uuid.NewString())
	return createSnapTransaction(orderID, int64(crs.Price), crs.Title, "COURSE", &user)
}

// CreateVoucherCheckout opens a gateway transaction for an extra exam attempt
func (lc *Lifecycle) CreateVoucherCheckout(userID, enrollmentID uint, price uint) (*Checkout, error) {
	var user models.User
	if err := lc.Db.Where("id = ? AND is_deleted = false", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, err
	}

	var enrollment courseModels.Enrollment
	if err := lc.Db.Where("id = ? AND user_id = ?", enrollmentID, userID).
		First(&enrollment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("enrollment not found")
		}
		return nil, err
	}
	if !enrollmentIsLive(enrollment.Status) {
		return nil, NewConflictError("enrollment is not active")
	}

	orderID := fmt.Sprintf("voucher-%d-%s", enrollmentID, uuid.NewString())
	return createSnapTransaction(orderID, int64(price), "Extra exam attempt", "VOUCHER", &user)
}

func createSnapTransaction(orderID string, amount int64, itemName, category string, user *models.User) (*Checkout, error) {
	if amount <= 0 {
		return nil, NewValidationError("invalid amount")
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.Name,
			Email: user.Email,
			Phone: user.Mobile,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       orderID,
				Price:    amount,
				Qty:      1,
				Name:     itemName,
				Category: category,
			},
		},
	}

	resp, err := SnapClient.CreateTransaction(req)
	if err != nil {
		return nil, err
	}
	return &Checkout{
		OrderID:     orderID,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}
